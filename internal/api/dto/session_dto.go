package dto

import (
	"github.com/spec-kit/asset-console/internal/domain"
	"github.com/spec-kit/asset-console/internal/shell"
)

// LoginRequest is the console login form.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse tells the client where to navigate after login.
type LoginResponse struct {
	Redirect string          `json:"redirect"`
	Identity domain.Identity `json:"identity"`
}

// ChangePasswordRequest is the change-password form.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// SessionResponse describes the current session for the client shell.
type SessionResponse struct {
	State         domain.State     `json:"state"`
	Authenticated bool             `json:"authenticated"`
	Privileged    bool             `json:"privileged"`
	Identity      *domain.Identity `json:"identity,omitempty"`
	Revision      shell.Revision   `json:"revision"`
	Nav           shell.Nav        `json:"nav"`
}

// ViewResponse is the model of a rendered console view.
type ViewResponse struct {
	View string    `json:"view"`
	Nav  shell.Nav `json:"nav"`
}
