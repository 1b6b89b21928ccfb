package http

import "time"

// Request and response bodies for the JSON API. Field names follow the
// snake_case wire convention used across the service.

type registerRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	DeviceID    string `json:"device_id,omitempty"`
	DeviceToken string `json:"device_token,omitempty"`
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	DeviceID    string `json:"device_id,omitempty"`
	DeviceToken string `json:"device_token,omitempty"`
}

type otpSendRequest struct {
	PhoneNumber string `json:"phone_number"`
	CeremonyID  string `json:"ceremony_id,omitempty"`
}

type otpSendResponse struct {
	CeremonyID  string    `json:"ceremony_id"`
	State       string    `json:"state"`
	MaskedPhone string    `json:"masked_phone"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type otpVerifyRequest struct {
	CeremonyID  string `json:"ceremony_id"`
	Code        string `json:"code"`
	DeviceID    string `json:"device_id,omitempty"`
	DeviceToken string `json:"device_token,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type revokeRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type updateProfileRequest struct {
	FullName        string `json:"full_name,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	DeviceToken     string `json:"device_token,omitempty"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type accountResponse struct {
	ID                  string     `json:"id"`
	PhoneNumber         string     `json:"phone_number"`
	FullName            string     `json:"full_name,omitempty"`
	Role                string     `json:"role"`
	Enabled             bool       `json:"enabled"`
	Locked              bool       `json:"locked"`
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	ProfileImageURL     string     `json:"profile_image_url,omitempty"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

type identityResponse struct {
	Account accountResponse `json:"account"`
	Tokens  tokenResponse   `json:"tokens"`
}

type accountListResponse struct {
	Accounts []accountResponse `json:"accounts"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
