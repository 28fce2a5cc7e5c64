package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/velocart/storefront-backend/internal/api/middleware"
	"github.com/velocart/storefront-backend/internal/errors"
	"github.com/velocart/storefront-backend/internal/models"
	service "github.com/velocart/storefront-backend/internal/services"
	"github.com/velocart/storefront-backend/internal/utils"
	"github.com/velocart/storefront-backend/internal/utils/response"
)

type ProfileHandler struct {
	profileService service.ProfileService
	validator      *validator.Validate
}

func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, validator: validator.New()}
}

// UpdateUserProfile godoc
//	@Summary		Update the caller's display name
//	@Description	Persists a new display name on the identity record of the authenticated user.
//	@Tags			Profile
//	@Accept			json
//	@Produce		json
//	@Param			profile	body		models.UpdateProfileRequest		true	"New display name"
//	@Success		200		{object}	models.UpdateProfileResponse	"Profile updated"
//	@Failure		400		{object}	response.APIError				"Display name missing"
//	@Failure		401		{object}	response.APIError				"Authentication required"
//	@Failure		500		{object}	response.APIError				"Identity provider error"
//	@Security		BearerAuth
//	@Router			/updateUserProfile [post]
func (h *ProfileHandler) UpdateUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		subjectID, ok := middleware.SubjectFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized profile update attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required."))

			return
		}

		var req models.UpdateProfileRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		resp, err := h.profileService.UpdateDisplayName(r.Context(), subjectID, req.DisplayName)
		if err != nil {
			logger.Error("Failed to update profile", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Profile updated", slog.String("displayName", resp.DisplayName))
		response.WriteJson(w, http.StatusOK, resp)
	}
}
