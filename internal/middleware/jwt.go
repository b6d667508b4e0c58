package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/curation-ledger/curation_ledger/internal/auth"
)

// TokenVerifier resolves a bearer token to its caller.
type TokenVerifier interface {
	VerifyAccess(ctx context.Context, token string) (auth.Claims, error)
}

// JWTAuth returns a middleware that validates access tokens and stores the
// caller account under auth.AccountLocal.
func JWTAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])
		claims, err := verifier.VerifyAccess(c.UserContext(), token)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		c.Locals(auth.AccountLocal, claims.Account)
		c.Locals("token_version", claims.TokenVersion)
		return c.Next()
	}
}
