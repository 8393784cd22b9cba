package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/jobboard-api/internal/utils"
)

// Locals populated by JWTProtected and read by the role guards and handlers.
const (
	LocalUserID   = "user_id"
	LocalUserRole = "user_role"
)

var errNoSubject = errors.New("token carries no usable subject")

// Identity is the caller described by a verified token.
type Identity struct {
	UserID uint
	Role   string
}

// JWTProtected verifies HMAC-signed bearer tokens issued by the auth service
// and stores the caller identity in the request locals.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		raw, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}

		claims := jwt.MapClaims{}
		if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		}); err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		identity, err := identityFromClaims(claims)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		c.Locals(LocalUserID, identity.UserID)
		if identity.Role != "" {
			c.Locals(LocalUserRole, identity.Role)
		}
		return c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header missing")
	}
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", errors.New("invalid authorization header")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("invalid token")
	}
	return token, nil
}

// identityFromClaims accepts the subject under sub, user_id or id, as a number
// or a decimal string, and the role under role or the first entry of roles.
func identityFromClaims(claims jwt.MapClaims) (Identity, error) {
	var identity Identity
	for _, key := range []string{"sub", "user_id", "id"} {
		if id, ok := parseSubject(claims[key]); ok {
			identity.UserID = id
			break
		}
	}
	if identity.UserID == 0 {
		return Identity{}, errNoSubject
	}

	for _, key := range []string{"role", "roles"} {
		if role := parseRole(claims[key]); role != "" {
			identity.Role = role
			break
		}
	}
	return identity, nil
}

func parseSubject(value interface{}) (uint, bool) {
	switch v := value.(type) {
	case float64:
		if v <= 0 || v != float64(uint64(v)) {
			return 0, false
		}
		return uint(v), true
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil || parsed == 0 {
			return 0, false
		}
		return uint(parsed), true
	default:
		return 0, false
	}
}

func parseRole(value interface{}) string {
	switch v := value.(type) {
	case string:
		return normalizeRole(v)
	case []interface{}:
		for _, item := range v {
			if role := normalizeRole(fmt.Sprint(item)); role != "" {
				return role
			}
		}
	}
	return ""
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
