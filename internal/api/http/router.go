package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-console/internal/api/http/handlers"
	"github.com/spec-kit/asset-console/internal/guard"
	"github.com/spec-kit/asset-console/internal/shell"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Session  *handlers.SessionHandler
	Views    *handlers.ViewsHandler
	Guards   guard.Session
	Recorder guard.Recorder

	LoginLocation   string
	DefaultLocation string
}

// RegisterRoutes wires HTTP routes. Gates are attached per route so that a
// privilege gate never leaks onto sibling routes sharing a prefix.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get(shell.PathLogin, cfg.Session.LoginView)
	app.Post(shell.PathLogin, cfg.Session.Login)
	app.Post(shell.PathLogout, cfg.Session.Logout)
	app.Get("/session", cfg.Session.Session)

	presence := guard.RequirePresence(cfg.Guards, cfg.LoginLocation, cfg.Recorder)
	privilege := guard.RequirePrivilege(cfg.Guards, cfg.DefaultLocation, cfg.Recorder)

	app.Get(shell.PathMyAssets, presence, cfg.Views.View("my-assets"))
	app.Get(shell.PathMyHistory, presence, cfg.Views.View("my-history"))
	app.Post(shell.PathPassword, presence, cfg.Session.ChangePassword)

	app.Get(shell.PathEmployees, presence, privilege, cfg.Views.View("employees"))
	app.Get(shell.PathAssets, presence, privilege, cfg.Views.View("assets"))
	app.Get(shell.PathAssignments, presence, privilege, cfg.Views.View("assignments"))

	app.Use(func(c *fiber.Ctx) error {
		return c.Redirect(cfg.LoginLocation, fiber.StatusFound)
	})
}
