package handlers

import (
	"github.com/anjiri1684/houserent/payments"
	"github.com/anjiri1684/houserent/services"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func (h *Handler) InitPayment(c *fiber.Ctx) error {
	travelerID, err := caller(c)
	if err != nil {
		return err
	}
	var in services.PaymentInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	link, err := h.Payments.InitPayment(c.UserContext(), travelerID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(link)
}

// PaymentResult is the gateway callback. It accepts form or JSON bodies and
// answers in the gateway's XML format.
func (h *Handler) PaymentResult(c *fiber.Ctx) error {
	var res payments.Result
	if err := parseBody(c, &res); err != nil {
		return err
	}

	h.Log.WithFields(logrus.Fields{"order_id": res.OrderID, "payment_id": res.PaymentID, "result": res.Result}).
		Info("Received payment result")

	tx, err := h.Payments.HandleResult(c.UserContext(), res)
	if err != nil {
		return err
	}
	body, err := h.Payments.Answer(tx)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	return c.Send(body)
}
