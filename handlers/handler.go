package handlers

import (
	"errors"
	"strings"

	"github.com/anjiri1684/houserent/middleware"
	"github.com/anjiri1684/houserent/registry"
	"github.com/anjiri1684/houserent/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

// Handler serves the HTTP and websocket API on top of the services.
type Handler struct {
	Travels  *services.TravelService
	Listings *services.ListingService
	Orders   *services.OrderService
	Offers   *services.OfferService
	Payments *services.PaymentService
	CatchUp  *services.CatchUpService

	Registry  registry.Registry
	Hub       Attacher
	JWTSecret string
	Log       *logrus.Logger
}

func NewHandler(h Handler) *Handler {
	return &h
}

// ErrorHandler renders every error returned by a handler as
// {"error": {"message": ..., "code": ...}}.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var svcErr *services.Error
		if errors.As(err, &svcErr) {
			return c.Status(statusOf(svcErr.Kind)).JSON(errorBody(svcErr.Message, svcErr.Code))
		}

		code := fiber.StatusInternalServerError
		message := "internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code, message = fe.Code, fe.Message
		} else {
			log.WithFields(logrus.Fields{"path": c.Path(), "method": c.Method()}).WithError(err).Error("[ERROR] request failed")
		}
		return c.Status(code).JSON(errorBody(message, codeName(code)))
	}
}

func statusOf(kind services.Kind) int {
	switch kind {
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindConflict:
		return fiber.StatusConflict
	case services.KindForbidden:
		return fiber.StatusForbidden
	case services.KindUpstream:
		return fiber.StatusBadGateway
	}
	return fiber.StatusBadRequest
}

func codeName(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "validation"
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusNotFound:
		return "not_found"
	}
	return strings.ReplaceAll(strings.ToLower(utils.StatusMessage(status)), " ", "_")
}

func errorBody(message, code string) fiber.Map {
	return fiber.Map{"error": fiber.Map{"message": message, "code": code}}
}

// parseBody decodes and validates a JSON request body into dst.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" failed "+fe.Tag())
			}
			return fiber.NewError(fiber.StatusBadRequest, strings.Join(fields, "; "))
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

func caller(c *fiber.Ctx) (uuid.UUID, error) {
	p, err := middleware.Identity(c)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	return p.UserID, nil
}
