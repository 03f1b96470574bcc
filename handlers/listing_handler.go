package handlers

import (
	"time"

	"github.com/anjiri1684/houserent/services"
	"github.com/gofiber/fiber/v2"
)

type ReplacePricesRequest struct {
	Prices []services.PriceInput `json:"prices" validate:"dive"`
}

func (h *Handler) CreateObject(c *fiber.Ctx) error {
	vendorID, err := caller(c)
	if err != nil {
		return err
	}
	var in services.ObjectInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	obj, err := h.Listings.CreateObject(c.UserContext(), vendorID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(obj)
}

func (h *Handler) ReplacePrices(c *fiber.Ctx) error {
	vendorID, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "objectId")
	if err != nil {
		return err
	}
	var req ReplacePricesRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	prices, err := h.Listings.ReplacePrices(c.UserContext(), vendorID, id, req.Prices)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"prices": prices})
}

// GetObject shows a listing with its price on ?date=, today by default.
func (h *Handler) GetObject(c *fiber.Ctx) error {
	id, err := paramID(c, "objectId")
	if err != nil {
		return err
	}
	date, err := queryDate(c)
	if err != nil {
		return err
	}
	obj, err := h.Listings.GetObject(c.UserContext(), id, date)
	if err != nil {
		return err
	}
	return c.JSON(obj)
}

func queryDate(c *fiber.Ctx) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	d, err := services.ParseDate(raw)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return d.Time, nil
}
