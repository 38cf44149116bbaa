package guard

import (
	"github.com/gofiber/fiber/v2"
)

// Recorder observes guard redirects.
type Recorder interface {
	RecordRedirect(gate, path, location string)
}

type gate struct {
	name     string
	evaluate func() Decision
	recorder Recorder
}

func (g gate) handle(c *fiber.Ctx) error {
	decision := g.evaluate()
	switch decision.Outcome {
	case Pending:
		c.Set(fiber.HeaderRetryAfter, "1")
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"view": "pending"})
	case Redirect:
		if g.recorder != nil {
			g.recorder.RecordRedirect(g.name, c.Path(), decision.Location)
		}
		return c.Redirect(decision.Location, fiber.StatusFound)
	default:
		return c.Next()
	}
}

// RequirePresence wraps Presence as Fiber middleware.
func RequirePresence(s Session, loginLocation string, rec Recorder) fiber.Handler {
	return gate{
		name:     "presence",
		evaluate: func() Decision { return Presence(s, loginLocation) },
		recorder: rec,
	}.handle
}

// RequirePrivilege wraps Privilege as Fiber middleware. Mount it behind
// RequirePresence.
func RequirePrivilege(s Session, fallbackLocation string, rec Recorder) fiber.Handler {
	return gate{
		name:     "privilege",
		evaluate: func() Decision { return Privilege(s, fallbackLocation) },
		recorder: rec,
	}.handle
}
