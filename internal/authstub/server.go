// Package authstub is a development stand-in for the auth endpoint: it
// issues HS256 tokens for seeded accounts so the console can be driven
// locally and in tests.
package authstub

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/asset-console/internal/domain"
)

const minPasswordLength = 6

// Server exposes the auth endpoint contract.
type Server struct {
	accounts *Accounts
	tokens   *TokenIssuer
	logger   *zap.Logger
}

// NewServer builds the stub.
func NewServer(accounts *Accounts, tokens *TokenIssuer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{accounts: accounts, tokens: tokens, logger: logger}
}

// Register mounts the auth routes under router.
func (s *Server) Register(router fiber.Router) {
	group := router.Group("/auth")
	group.Post("/login", s.Login)
	group.Post("/change-password", s.ChangePassword)
}

// errorDetails mirrors the error body returned by the production endpoint.
type errorDetails struct {
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}

func reply(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(errorDetails{
		Timestamp: time.Now().UTC(),
		Error:     http.StatusText(status),
		Message:   message,
	})
}

// Login handles POST /auth/login.
func (s *Server) Login(c *fiber.Ctx) error {
	var req domain.Credentials
	if err := c.BodyParser(&req); err != nil {
		return reply(c, http.StatusBadRequest, "invalid payload")
	}
	if req.SubjectID == "" || req.Secret == "" {
		return reply(c, http.StatusBadRequest, "email and password required")
	}

	acc, err := s.accounts.Authenticate(req.SubjectID, req.Secret)
	if err != nil {
		s.logger.Info("login refused", zap.String("email", req.SubjectID), zap.Error(err))
		return reply(c, http.StatusUnauthorized, "Invalid email or password")
	}

	token, exp, err := s.tokens.Issue(acc.Email, acc.Role)
	if err != nil {
		s.logger.Error("issue token", zap.Error(err))
		return reply(c, http.StatusInternalServerError, "could not issue token")
	}

	s.logger.Info("login accepted", zap.String("email", acc.Email), zap.String("role", string(acc.Role)), zap.Time("expires_at", exp))
	return c.JSON(fiber.Map{"token": token})
}

// ChangePassword handles POST /auth/change-password.
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return reply(c, http.StatusUnauthorized, "missing bearer token")
	}
	claims, err := s.tokens.Verify(parts[1])
	if err != nil {
		return reply(c, http.StatusUnauthorized, "invalid token")
	}

	var req domain.PasswordChange
	if err := c.BodyParser(&req); err != nil {
		return reply(c, http.StatusBadRequest, "invalid payload")
	}
	if req.SubjectID != claims.Subject {
		return reply(c, http.StatusForbidden, "cannot change another account's password")
	}
	if len(req.NewPassword) < minPasswordLength {
		return reply(c, http.StatusBadRequest, "new password too short")
	}

	if err := s.accounts.ChangePassword(req.SubjectID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, errWrongPassword) || errors.Is(err, errUnknownAccount) {
			return reply(c, http.StatusUnauthorized, "current password is incorrect")
		}
		return reply(c, http.StatusInternalServerError, "could not change password")
	}
	return c.SendStatus(http.StatusNoContent)
}
