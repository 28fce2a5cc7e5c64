package identity

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

type firebaseProvider struct {
	client *auth.Client
}

// NewFirebase builds a Provider backed by the Firebase Auth admin API. An
// empty credentialsFile falls back to application default credentials.
func NewFirebase(ctx context.Context, projectID, credentialsFile string) (Provider, error) {

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}

	return &firebaseProvider{client: client}, nil
}

func (p *firebaseProvider) VerifyToken(ctx context.Context, token string) (string, error) {

	decoded, err := p.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("token verification failed: %w", err)
	}

	return decoded.UID, nil
}

func (p *firebaseProvider) UpdateDisplayName(ctx context.Context, subjectID, displayName string) error {

	update := (&auth.UserToUpdate{}).DisplayName(displayName)

	if _, err := p.client.UpdateUser(ctx, subjectID, update); err != nil {
		return fmt.Errorf("failed to update user %s: %w", subjectID, err)
	}

	return nil
}

func (p *firebaseProvider) User(ctx context.Context, subjectID string) (*UserInfo, error) {

	record, err := p.client.GetUser(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", subjectID, err)
	}

	return &UserInfo{
		SubjectID:   record.UID,
		Email:       record.Email,
		DisplayName: record.DisplayName,
	}, nil
}
