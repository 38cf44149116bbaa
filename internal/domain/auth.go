package domain

import "fmt"

// Role enumerates operator roles carried in access tokens.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
)

// ParseRole maps a claim value to a known role. Unknown values are rejected.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin, RoleEmployee:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Privileged reports whether the role grants access to administrative views.
func (r Role) Privileged() bool {
	return r == RoleAdmin
}

// Identity is the authenticated principal derived from a valid token.
type Identity struct {
	SubjectID string `json:"subject_id"`
	Role      Role   `json:"role"`
}

// Credentials are submitted to the auth endpoint to obtain a token.
type Credentials struct {
	SubjectID string `json:"email"`
	Secret    string `json:"password"`
}

// PasswordChange is forwarded to the auth endpoint's change-password operation.
type PasswordChange struct {
	SubjectID       string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
