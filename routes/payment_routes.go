package routes

import (
	"github.com/anjiri1684/houserent/handlers"
	"github.com/anjiri1684/houserent/middleware"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App, h *handlers.Handler, secret string) {
	api := app.Group("/api/v1")

	// called by the gateway, authenticated by pg_sig
	api.Post("/payments/result", h.PaymentResult)

	payments := api.Group("/payments", middleware.Protected(secret), middleware.TravelerRequired())
	payments.Post("/init", h.InitPayment)
}
