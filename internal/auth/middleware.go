package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/pkg/util"
)

const operatorKey = "auth_operator"

// APIAuthMiddleware validates bearer tokens on the status API.
type APIAuthMiddleware struct {
	tokens *TokenManager
}

// NewAPIAuthMiddleware constructs the middleware.
func NewAPIAuthMiddleware(tokens *TokenManager) *APIAuthMiddleware {
	return &APIAuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *APIAuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return util.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return util.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return util.NewUnauthorized("invalid token")
	}

	c.Locals(operatorKey, claims.Operator)
	return c.Next()
}

// OperatorFromContext retrieves the authenticated operator name.
func OperatorFromContext(c *fiber.Ctx) (string, bool) {
	val := c.Locals(operatorKey)
	if val == nil {
		return "", false
	}
	operator, ok := val.(string)
	return operator, ok
}
