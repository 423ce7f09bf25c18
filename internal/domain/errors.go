package domain

import "errors"

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidStatus           = errors.New("invalid order status")
	ErrNotFound                = errors.New("not found")
	ErrStationMismatch         = errors.New("barista station cannot handle order type")

	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrInvalidOption      = errors.New("invalid product option")
	ErrEmptyCart          = errors.New("cart is empty")

	ErrInvalidTableCode = errors.New("invalid table code")
	ErrTableRequired    = errors.New("scan your table QR code to start ordering")

	ErrGiftCardExpired        = errors.New("gift card has expired")
	ErrGiftCardBalanceChanged = errors.New("gift card balance changed")
	ErrInvalidGiftCardAmount  = errors.New("gift card amount must be 25, 50, 75 or 100")

	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
)

// ValidationError is a user-visible rejection of a single input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
