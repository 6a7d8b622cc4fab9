package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header is echoed on every response.
const Header = "X-Ray-ID"

// LocalKey is where the id is stored in the fiber context.
const LocalKey = "ray_id"

// New returns a middleware tagging each request with a ray id. An incoming
// X-Ray-ID is kept so ids can span services.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(LocalKey, id)
		c.Set(Header, id)
		return c.Next()
	}
}
