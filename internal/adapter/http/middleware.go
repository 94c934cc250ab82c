package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// UserHeader carries the caller identity set by the upstream gateway.
	UserHeader = "X-User-ID"
	ownerKey   = "owner"
)

// RequireUser rejects requests without a valid user id.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Get(UserHeader))
		if err != nil || id == uuid.Nil {
			return Error(c, fiber.StatusUnauthorized, "missing or invalid "+UserHeader)
		}
		c.Locals(ownerKey, id)
		return c.Next()
	}
}

func owner(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(ownerKey).(uuid.UUID)
	return id
}
