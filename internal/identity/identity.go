package identity

import "context"

// UserInfo is the subset of the identity record this service reads back.
type UserInfo struct {
	SubjectID   string
	Email       string
	DisplayName string
}

// Provider is the external identity collaborator: it verifies bearer
// credentials into stable subject ids and owns the identity record itself.
type Provider interface {
	// VerifyToken validates a bearer credential and returns the subject id
	// it was issued to.
	VerifyToken(ctx context.Context, token string) (string, error)

	// UpdateDisplayName persists a new display name on the identity record.
	UpdateDisplayName(ctx context.Context, subjectID, displayName string) error

	// User fetches the identity record for a verified subject.
	User(ctx context.Context, subjectID string) (*UserInfo, error)
}
