package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/common"
	"storefront/internal/services"
)

// ClaimsKey is the fiber locals key holding the authenticated *services.Claims.
const ClaimsKey = "claims"

// Authenticate is a Fiber middleware to check for a valid bearer token.
func Authenticate(tokens *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authenticate(c, tokens); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireRole rejects requests whose role claim does not satisfy required. A request that was
// never authenticated is rejected as unauthenticated, not forbidden, whatever order the
// middlewares were declared in.
func RequireRole(required string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authorize(c, required); err != nil {
			return err
		}
		return c.Next()
	}
}

// Protected runs authentication and then the role gate as one handler, so the gates can never
// be mounted in the wrong order. An empty requiredRole only authenticates.
func Protected(tokens *services.TokenService, requiredRole string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authenticate(c, tokens); err != nil {
			return err
		}
		if err := authorize(c, requiredRole); err != nil {
			return err
		}
		return c.Next()
	}
}

// ClaimsFrom returns the claims attached by Authenticate, or nil.
func ClaimsFrom(c *fiber.Ctx) *services.Claims {
	claims, _ := c.Locals(ClaimsKey).(*services.Claims)
	return claims
}

func authenticate(c *fiber.Ctx, tokens *services.TokenService) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return common.NewError(common.ErrUnauthenticated, "Authorization header is required")
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return common.NewError(common.ErrUnauthenticated, "Authorization header format must be 'Bearer <token>'")
	}

	claims, err := tokens.Verify(parts[1])
	if err != nil {
		if errors.Is(err, services.ErrTokenExpired) {
			return common.NewError(common.ErrUnauthenticated, "Token has expired")
		}
		return common.NewError(common.ErrUnauthenticated, "Invalid token")
	}

	c.Locals(ClaimsKey, claims)
	return nil
}

func authorize(c *fiber.Ctx, required string) error {
	claims := ClaimsFrom(c)
	if claims == nil {
		return common.NewError(common.ErrUnauthenticated, "Authorization header is required")
	}
	if !services.RoleSatisfies(claims.Role, required) {
		return common.NewError(common.ErrForbidden, "You do not have permission to perform this action")
	}
	return nil
}
