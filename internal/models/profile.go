package models

type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" validate:"required"`
}

type UpdateProfileResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	DisplayName string `json:"displayName"`
}
