package routes

import (
	"github.com/anjiri1684/houserent/handlers"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	api.Get("/objects/:objectId", h.GetObject)
}
