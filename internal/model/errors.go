package model

import "errors"

// Sentinel errors shared by every layer. Handlers map them to HTTP
// status codes; wrap them with fmt.Errorf("%w") to add detail.
var (
	ErrRoomNotFound         = errors.New("room type not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrCartNotFound         = errors.New("cart not found")
	ErrCartEmpty            = errors.New("cart is empty")
	ErrInvalidWindow        = errors.New("invalid stay window")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrAlreadyCancelled     = errors.New("booking already cancelled")
	ErrAlreadyRefunded      = errors.New("booking already refunded")
	ErrNoRefundPending      = errors.New("no refund pending")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrForbidden            = errors.New("forbidden")
	ErrConflict             = errors.New("conflict")
)
