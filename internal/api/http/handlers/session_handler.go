package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/asset-console/internal/api/dto"
	"github.com/spec-kit/asset-console/internal/authclient"
	"github.com/spec-kit/asset-console/internal/domain"
	"github.com/spec-kit/asset-console/internal/session"
	"github.com/spec-kit/asset-console/internal/shell"
	apperrors "github.com/spec-kit/asset-console/pkg/util"
)

// SessionService is the session manager surface used by the handlers.
type SessionService interface {
	Login(ctx context.Context, creds domain.Credentials) error
	Logout(ctx context.Context)
	State() domain.State
	CurrentIdentity() (domain.Identity, bool)
	IsAuthenticated() bool
	IsPrivileged() bool
	Token() string
}

// PasswordChanger forwards password changes to the auth endpoint.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, bearer string, req domain.PasswordChange) error
}

// SessionHandler serves login, logout and session introspection.
type SessionHandler struct {
	sessions  SessionService
	passwords PasswordChanger
	tracker   *shell.Tracker
	logger    *zap.Logger
	loggingIn atomic.Bool
}

// NewSessionHandler constructs handler.
func NewSessionHandler(sessions SessionService, passwords PasswordChanger, tracker *shell.Tracker, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{sessions: sessions, passwords: passwords, tracker: tracker, logger: logger}
}

// LoginView handles GET /login.
func (h *SessionHandler) LoginView(c *fiber.Ctx) error {
	if !h.sessions.State().Settled() {
		return h.pending(c)
	}
	if id, ok := h.sessions.CurrentIdentity(); ok {
		return c.Redirect(shell.Landing(id), http.StatusFound)
	}
	return c.JSON(dto.ViewResponse{View: "login", Nav: shell.Build(h.sessions, c.Path())})
}

// Login handles POST /login.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details := validateLogin(req); len(details) > 0 {
		return apperrors.NewValidationError("invalid login form", details)
	}

	if !h.sessions.State().Settled() {
		return h.pending(c)
	}
	if !h.loggingIn.CompareAndSwap(false, true) {
		return apperrors.NewLoginInProgress()
	}
	defer h.loggingIn.Store(false)

	err := h.sessions.Login(c.UserContext(), domain.Credentials{
		SubjectID: strings.TrimSpace(req.Email),
		Secret:    req.Password,
	})
	if errors.Is(err, session.ErrNotSettled) {
		return h.pending(c)
	}
	if err != nil {
		return h.mapAuthError(err)
	}

	id, ok := h.sessions.CurrentIdentity()
	if !ok {
		return apperrors.NewSessionError(errors.New("identity missing after login"))
	}
	return c.JSON(dto.LoginResponse{Redirect: shell.Landing(id), Identity: id})
}

// Logout handles POST /logout. It always succeeds.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	h.sessions.Logout(c.UserContext())
	return c.SendStatus(http.StatusNoContent)
}

// Session handles GET /session.
func (h *SessionHandler) Session(c *fiber.Ctx) error {
	resp := dto.SessionResponse{
		State:         h.sessions.State(),
		Authenticated: h.sessions.IsAuthenticated(),
		Privileged:    h.sessions.IsPrivileged(),
		Nav:           shell.Build(h.sessions, c.Path()),
	}
	if id, ok := h.sessions.CurrentIdentity(); ok {
		resp.Identity = &id
	}
	if h.tracker != nil {
		resp.Revision = h.tracker.Current()
	}
	return c.JSON(resp)
}

// ChangePassword handles POST /password/change for the current operator.
func (h *SessionHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details := map[string]any{}
	if req.CurrentPassword == "" {
		details["currentPassword"] = "required"
	}
	if req.NewPassword == "" {
		details["newPassword"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid password form", details)
	}

	id, ok := h.sessions.CurrentIdentity()
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "not signed in")
	}
	err := h.passwords.ChangePassword(c.UserContext(), h.sessions.Token(), domain.PasswordChange{
		SubjectID:       id.SubjectID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return h.mapAuthError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// pending renders the view shown while the stored session is restored.
func (h *SessionHandler) pending(c *fiber.Ctx) error {
	c.Set(fiber.HeaderRetryAfter, "1")
	return c.Status(http.StatusAccepted).JSON(dto.ViewResponse{View: "pending", Nav: shell.Build(h.sessions, c.Path())})
}

func (h *SessionHandler) mapAuthError(err error) error {
	var invalid *authclient.InvalidCredentialsError
	var rejected *authclient.RejectedError
	switch {
	case errors.As(err, &invalid):
		return apperrors.NewInvalidCredentials(invalid.Message)
	case errors.As(err, &rejected):
		return apperrors.NewValidationError(rejected.Message, nil)
	case errors.Is(err, authclient.ErrTransport):
		h.logger.Warn("auth endpoint unavailable", zap.Error(err))
		return apperrors.NewAuthUnavailable(err)
	case errors.Is(err, session.ErrSession):
		return apperrors.NewSessionError(err)
	default:
		return apperrors.NewInternalError(err)
	}
}

func validateLogin(req dto.LoginRequest) map[string]any {
	details := map[string]any{}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		details["email"] = "required"
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		details["email"] = "invalid format"
	}
	if req.Password == "" {
		details["password"] = "required"
	}
	return details
}
