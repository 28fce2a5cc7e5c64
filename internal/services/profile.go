package service

import (
	"context"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/velocart/storefront-backend/internal/errors"
	"github.com/velocart/storefront-backend/internal/identity"
	"github.com/velocart/storefront-backend/internal/models"
)

type ProfileService interface {
	UpdateDisplayName(ctx context.Context, subjectID, displayName string) (*models.UpdateProfileResponse, error)
}

type profileService struct {
	provider  identity.Provider
	sanitizer *bluemonday.Policy
}

func NewProfileService(provider identity.Provider) ProfileService {
	return &profileService{provider: provider, sanitizer: bluemonday.StrictPolicy()}
}

// UpdateDisplayName persists a new display name on the caller's identity
// record. The subject id comes from the verified credential, never from the
// request body, so a caller can only ever update their own profile.
func (s *profileService) UpdateDisplayName(ctx context.Context, subjectID, displayName string) (*models.UpdateProfileResponse, error) {

	name := strings.TrimSpace(s.sanitizer.Sanitize(displayName))
	if name == "" {
		return nil, errors.ValidationError("Display name is required.")
	}

	if err := s.provider.UpdateDisplayName(ctx, subjectID, name); err != nil {
		return nil, errors.ProfileUpdateError("Failed to update profile.").WithDetail(err.Error()).WithError(err)
	}

	return &models.UpdateProfileResponse{
		Success:     true,
		Message:     "Profile updated successfully.",
		DisplayName: name,
	}, nil
}
