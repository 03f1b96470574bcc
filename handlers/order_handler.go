package handlers

import (
	"github.com/anjiri1684/houserent/repository"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) VendorOrders(c *fiber.Ctx) error {
	vendorID, err := caller(c)
	if err != nil {
		return err
	}
	status := repository.OrderStatus(c.Query("status", string(repository.OrdersPending)))
	switch status {
	case repository.OrdersPending, repository.OrdersApproved, repository.OrdersRejected:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "status must be pending, approved or rejected")
	}

	orders, err := h.Orders.VendorOrders(c.UserContext(), vendorID, status)
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

func (h *Handler) GetOrder(c *fiber.Ctx) error {
	vendorID, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "orderId")
	if err != nil {
		return err
	}
	order, err := h.Orders.GetOrder(c.UserContext(), vendorID, id)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

func (h *Handler) ApproveOrder(c *fiber.Ctx) error {
	vendorID, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "orderId")
	if err != nil {
		return err
	}
	order, err := h.Orders.ApproveOrder(c.UserContext(), vendorID, id)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

func (h *Handler) RejectOrder(c *fiber.Ctx) error {
	vendorID, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "orderId")
	if err != nil {
		return err
	}
	if err := h.Orders.RejectOrder(c.UserContext(), vendorID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
