package services

import "fmt"

type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindForbidden  Kind = "forbidden"
	KindUpstream   Kind = "upstream"
)

// Error is a failure the caller can act on. errors.Is matches by kind, and
// by code when the target carries one.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

var (
	ErrValidation = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound   = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict   = &Error{Kind: KindConflict, Message: "conflict"}
	ErrForbidden  = &Error{Kind: KindForbidden, Message: "forbidden"}

	ErrBudgetExceeded    = &Error{Kind: KindValidation, Code: "budget_exceeded", Message: "offer price exceeds the traveler's maximum budget"}
	ErrOrderNotApproved  = &Error{Kind: KindConflict, Code: "order_not_approved", Message: "order must be approved before an offer is made"}
	ErrOrderNotPending   = &Error{Kind: KindConflict, Code: "order_not_pending", Message: "order is no longer pending"}
	ErrOfferNotPending   = &Error{Kind: KindConflict, Code: "offer_not_pending", Message: "offer is no longer pending"}
	ErrOfferNotAccepted  = &Error{Kind: KindConflict, Code: "offer_not_accepted", Message: "offer must be accepted before payment"}
	ErrOfferSettled      = &Error{Kind: KindConflict, Code: "offer_settled", Message: "offer payment is already settled"}
	ErrInvalidSignature  = &Error{Kind: KindValidation, Code: "invalid_signature", Message: "payment result signature mismatch"}
	ErrPaymentGatewayErr = &Error{Kind: KindUpstream, Code: "payment_gateway", Message: "payment gateway request failed"}
)

func validationError(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func notFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Code: entity + "_not_found", Message: entity + " not found"}
}

func forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Code: "forbidden", Message: message}
}
