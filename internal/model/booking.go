package model

import "time"

// Booking status values.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Payment status values.
const (
	PaymentUnpaid   = "unpaid"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// Booking is a reservation record. Only confirmed bookings consume
// inventory.
//
// Fields:
//
//	PaymentRef    – external payment reference, set on confirm.
//	RefundID      – external refund reference, set once refunded.
//	RefundPending – a paid booking was cancelled and awaits a refund.
//	IsRefunded    – the refund went through; never cleared.
type Booking struct {
	ID            uint64            `json:"id"`
	UserID        uint64            `json:"user_id"`
	Email         string            `json:"email"`
	Mobile        string            `json:"mobile"`
	Window        Window            `json:"window"`
	Lines         []ReservationLine `json:"rooms"`
	TotalGuests   int               `json:"total_guests"`
	Subtotal      Money             `json:"subtotal"`
	Tax           Money             `json:"tax"`
	GrandTotal    Money             `json:"grand_total"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	PaymentRef    *string           `json:"payment_ref,omitempty"`
	RefundID      *string           `json:"refund_id,omitempty"`
	RefundPending bool              `json:"refund_pending"`
	IsRefunded    bool              `json:"is_refunded"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Paid reports whether money has been taken for the booking.
func (b *Booking) Paid() bool { return b.PaymentStatus == PaymentPaid }

// BookingFilter narrows an administrative booking listing. Zero values
// mean "no filter".
type BookingFilter struct {
	Email         string
	Status        string
	PaymentStatus string
	Guests        int
	Date          *time.Time
	Page          int
	PerPage       int
}

// BookingPage is one page of a booking listing.
type BookingPage struct {
	Bookings []Booking `json:"bookings"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PerPage  int       `json:"per_page"`
}
