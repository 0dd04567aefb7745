// Package middleware provides HTTP middleware for the fiber app. Token
// issuance lives in the platform's authentication service; here we only
// validate and unpack access tokens.
package middleware

import (
	"log"
	"strings"

	"moongamble/internal/config"
	"moongamble/internal/models"
	"moongamble/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Auth validates the Bearer token and stores the claims in request locals.
func Auth() fiber.Handler {
	secret := []byte(config.GetEnv("JWT_SECRET", "moongamble"))

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c)
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return response.Unauthorized(c)
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.ParseWithClaims(tokenString, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil || !token.Valid {
			log.Printf("token validation error: %v", err)
			return response.Unauthorized(c)
		}

		claims, ok := token.Claims.(*models.UserClaims)
		if !ok || claims.AccountID == "" {
			return response.Unauthorized(c)
		}

		c.Locals("claims", claims)
		return c.Next()
	}
}

// AdminOnly requires the admin role. Must run after Auth.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*models.UserClaims)
		if !ok || claims == nil {
			return response.Unauthorized(c)
		}
		if claims.Role != models.RoleAdmin {
			return response.Forbidden(c)
		}
		return c.Next()
	}
}

// Claims extracts the validated claims from request locals.
func Claims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}
