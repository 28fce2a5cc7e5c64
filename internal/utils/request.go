package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/velocart/storefront-backend/internal/errors"
	"github.com/velocart/storefront-backend/internal/utils/response"
)

// DecodeJSONBody parses the request body into dest, rejecting unknown
// fields so malformed clients fail loudly instead of being half-read.
func DecodeJSONBody(r *http.Request, dest any) error {

	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON format: %w", err)
	}

	return nil
}

// ParseAndValidate decodes and validates the request body, writing the 400
// response itself on failure. Returns false when the caller should stop.
func ParseAndValidate(r *http.Request, w http.ResponseWriter, dest any, validate *validator.Validate) bool {

	if err := DecodeJSONBody(r, dest); err != nil {
		response.Error(w, apperrors.ValidationError("Invalid request body.").WithDetail(err.Error()))
		return false
	}

	if err := validate.Struct(dest); err != nil {

		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			first := validationErrs[0]
			response.Error(w, apperrors.ValidationError("Missing required payment or cart details.").
				WithDetail(fmt.Sprintf("field %s failed on %s", first.Field(), first.Tag())))

			return false
		}

		response.Error(w, apperrors.ValidationError("Invalid input data."))

		return false
	}

	return true
}
