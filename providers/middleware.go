package providers

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/orchestra-mcp/chat/src/identity"
	"github.com/orchestra-mcp/chat/src/types"
)

// PrincipalKey is the Fiber locals key holding the caller's principal.
const PrincipalKey = "principal"

// RequireAdmin validates a Bearer token and rejects callers without the
// admin role.
func RequireAdmin(issuer *identity.Issuer) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return errorJSON(c, fiber.StatusUnauthorized, "authorization header is required")
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return errorJSON(c, fiber.StatusUnauthorized, "use: Bearer <token>")
		}

		claims, err := issuer.Verify(strings.TrimSpace(token))
		if err != nil {
			return errorJSON(c, fiber.StatusUnauthorized, "invalid or expired token")
		}
		p := claims.Principal()
		if p.Role != types.RoleAdmin {
			return errorJSON(c, fiber.StatusForbidden, "forbidden")
		}

		c.Locals(PrincipalKey, p)
		return c.Next()
	}
}
