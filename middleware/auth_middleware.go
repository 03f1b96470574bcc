package middleware

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	RoleTraveler = "traveler"
	RoleVendor   = "vendor"
)

var ErrInvalidClaims = errors.New("token lacks a valid user_id or role")

// Principal is the authenticated caller.
type Principal struct {
	UserID uuid.UUID
	Role   string
}

func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": fiber.Map{"message": "Missing or malformed JWT", "code": "unauthorized"}})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"error": fiber.Map{"message": "Invalid or expired JWT", "code": "unauthorized"}})
}

func TravelerRequired() fiber.Handler {
	return roleRequired(RoleTraveler, "Forbidden: Traveler access required")
}

func VendorRequired() fiber.Handler {
	return roleRequired(RoleVendor, "Forbidden: Vendor access required")
}

func roleRequired(role, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := Identity(c)
		if err != nil || p.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": fiber.Map{"message": message, "code": "forbidden"},
			})
		}
		return c.Next()
	}
}

// Identity reads the principal the JWT middleware stored on the request.
func Identity(c *fiber.Ctx) (Principal, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return Principal{}, ErrInvalidClaims
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidClaims
	}
	return principal(claims)
}

// ParseToken validates a raw token, as sent by websocket clients in ?token=.
func ParseToken(secret, tokenString string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Principal{}, ErrInvalidClaims
	}
	return principal(claims)
}

func principal(claims jwt.MapClaims) (Principal, error) {
	raw, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		return Principal{}, ErrInvalidClaims
	}
	role, _ := claims["role"].(string)
	if role != RoleTraveler && role != RoleVendor {
		return Principal{}, ErrInvalidClaims
	}
	return Principal{UserID: userID, Role: role}, nil
}
