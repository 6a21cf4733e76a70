package middleware

import (
	"alumni_events/helper"
	"alumni_events/utils"
	"errors"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("access_token")

		if token == "" {
			// check header Authorization: Bearer xxx
			auth := c.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if token == "" {
			return utils.ErrorResponse(c, 401, "Missing token", errors.New("no token"))
		}

		jwtToken, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !jwtToken.Valid {
			return utils.ErrorResponse(c, 401, "Invalid token", err)
		}

		c.Locals("user", jwtToken)
		return c.Next()
	}
}

// AdminOnly requires a valid staff account token with the ADMIN role.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, isAdmin, _ := helper.GetInfoAccountFromToken(c)
		if !isAdmin {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Admin only", nil)
		}
		return c.Next()
	}
}

// StaffOnly allows admins and organizers.
func StaffOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, isAdmin, isOrganizer := helper.GetInfoAccountFromToken(c)
		if !isAdmin && !isOrganizer {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Staff only", nil)
		}
		return c.Next()
	}
}

func OptionalJWT() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")

		tokenString := ""
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else if cookie := c.Cookies("access_token"); cookie != "" {
			tokenString = cookie
		}

		if tokenString == "" {
			c.Locals("user", nil)
			return c.Next()
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !token.Valid {
			c.Locals("user", nil)
			return c.Next()
		}

		c.Locals("user", token)
		return c.Next()
	}
}

// OptionalAuth resolves the alumnus behind an OptionalJWT token, leaving
// guests with a zero id.
func OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, alumnus := helper.GetInfoAlumnusFromToken(c)

		if claim.AlumnusId == 0 {
			c.Locals("alumnusId", uint(0))
			return c.Next()
		}

		c.Locals("alumnusId", claim.AlumnusId)
		if alumnus.ID > 0 {
			c.Locals("alumnus", &alumnus)
		}

		return c.Next()
	}
}
