// Package authclient talks to the external auth endpoint that issues bearer
// tokens and changes passwords.
package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/asset-console/internal/domain"
)

const (
	loginPath          = "/auth/login"
	changePasswordPath = "/auth/change-password"
)

// Client calls the auth endpoint over HTTP.
type Client struct {
	baseURL string
	timeout time.Duration
	decode  utils.JSONUnmarshal
}

// New builds a client for the endpoint rooted at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout, decode: json.Unmarshal}
}

type loginResponse struct {
	Token string `json:"token"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	agent, err := c.request(ctx, loginPath, "", creds)
	if err != nil {
		return "", err
	}

	var resp loginResponse
	status, body, errs := agent.Struct(&resp)
	if status == 0 {
		return "", &TransportError{Err: errors.Join(errs...)}
	}
	if status != http.StatusOK {
		return "", c.classify(status, body)
	}
	if len(errs) > 0 {
		return "", &TransportError{Status: status, Err: fmt.Errorf("decode login response: %w", errors.Join(errs...))}
	}
	return resp.Token, nil
}

// ChangePassword forwards a password change authorized by the bearer token.
func (c *Client) ChangePassword(ctx context.Context, bearer string, req domain.PasswordChange) error {
	agent, err := c.request(ctx, changePasswordPath, bearer, req)
	if err != nil {
		return err
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return &TransportError{Err: errors.Join(errs...)}
	}
	if status != http.StatusNoContent && status != http.StatusOK {
		return c.classify(status, body)
	}
	return nil
}

// request prepares a JSON POST bounded by the client timeout and ctx deadline.
func (c *Client) request(ctx context.Context, path, bearer string, payload any) (*fiber.Agent, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Err: err}
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, &TransportError{Err: context.DeadlineExceeded}
	}

	agent := fiber.Post(c.baseURL + path)
	agent.JSON(payload)
	agent.JSONDecoder(c.decode)
	agent.Timeout(timeout)
	if bearer != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	return agent, nil
}

func (c *Client) classify(status int, body []byte) error {
	message := c.messageFrom(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &InvalidCredentialsError{Status: status, Message: message}
	case status >= 400 && status < 500:
		return &RejectedError{Status: status, Message: message}
	default:
		if message == "" {
			message = http.StatusText(status)
		}
		return &TransportError{Status: status, Err: errors.New(message)}
	}
}

func (c *Client) messageFrom(body []byte) string {
	var eb errorBody
	if err := c.decode(body, &eb); err != nil {
		return ""
	}
	if eb.Message != "" {
		return eb.Message
	}
	return eb.Error
}
