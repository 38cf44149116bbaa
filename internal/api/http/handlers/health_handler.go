package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-console/internal/store"
)

// HealthHandler responds to liveness and readiness checks.
type HealthHandler struct {
	serviceName string
	version     string
	store       store.Pinger
	driver      string
}

// NewHealthHandler returns a new handler instance. pinger may be nil.
func NewHealthHandler(serviceName, version, driver string, pinger store.Pinger) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, store: pinger, driver: driver}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports readiness of the session store backend.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	if h.store == nil {
		depStatus["session_store"] = "ok"
	} else if err := h.store.Ping(ctx); err != nil {
		depStatus["session_store"] = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "session store unavailable",
				"details": depStatus,
			},
		})
	} else {
		depStatus["session_store"] = "ok"
	}

	return c.JSON(fiber.Map{
		"status":       "ready",
		"store_driver": h.driver,
		"dependencies": depStatus,
	})
}
