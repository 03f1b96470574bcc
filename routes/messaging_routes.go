package routes

import (
	"github.com/anjiri1684/houserent/handlers"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func MessagingRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	api.Get("/ws/:topic", h.UpgradeWs, websocket.New(h.ServeWs))
}
