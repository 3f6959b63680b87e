package transport

import "accountd/internal/account/domain"

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username" validate:"required,min=3,max=32"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"displayName" validate:"required,max=64"`
}

type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type UpdateUsernameRequest struct {
	UID         string `json:"uid" validate:"required"`
	Username    string `json:"username" validate:"required,min=3,max=32"`
	DisplayName string `json:"displayName" validate:"required,max=64"`
}

type DeleteAccountRequest struct {
	UID string `json:"uid" validate:"required"`
}

type ProfileResponse struct {
	UID         string  `json:"uid"`
	Username    string  `json:"username"`
	Email       *string `json:"email"`
	DisplayName string  `json:"displayName"`
}

type LoginResponse struct {
	Token   string          `json:"token"`
	Profile ProfileResponse `json:"profile"`
}

type DeleteAccountResponse struct {
	Success bool `json:"success"`
}

// NewProfileResponse maps a domain profile onto its transport shape.
func NewProfileResponse(profile domain.Profile) ProfileResponse {
	return ProfileResponse{
		UID:         profile.UID,
		Username:    profile.Username,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
	}
}
