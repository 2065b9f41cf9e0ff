package handlers

import (
	"github.com/gofiber/fiber/v2"

	"go_commission/middleware"
	"go_commission/navigation"
)

// Navigation 返回当前成员角色可见的导航入口
func Navigation(c *fiber.Ctx) error {
	role := middleware.CurrentRole(c)
	if !role.Valid() {
		return unauthorized(c)
	}

	return c.JSON(fiber.Map{
		"role": role,
		"data": navigation.EntriesFor(role),
	})
}
