package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/jobboard-api/internal/utils"
)

// RequireRole lets the request through only when the caller's role is one of
// roles. Comparison ignores case.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		if normalized := normalizeRole(role); normalized != "" {
			allowed[normalized] = struct{}{}
			names = append(names, normalized)
		}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := allowed[CallerRole(c)]; !ok {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", fiber.Map{"requiredRoles": names})
		}
		return c.Next()
	}
}

// CallerID returns the authenticated user id, or 0.
func CallerID(c *fiber.Ctx) uint {
	switch v := c.Locals(LocalUserID).(type) {
	case uint:
		return v
	case int:
		if v > 0 {
			return uint(v)
		}
	}
	return 0
}

// CallerRole returns the authenticated role in lower case, or "".
func CallerRole(c *fiber.Ctx) string {
	if role, ok := c.Locals(LocalUserRole).(string); ok {
		return normalizeRole(role)
	}
	return ""
}
