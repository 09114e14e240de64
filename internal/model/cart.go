package model

import "time"

// Cart is a user's single mutable draft. Its lines act as a soft hold
// on inventory until the cart is deleted, promoted or expires.
type Cart struct {
	ID          uint64            `json:"id"`
	UserID      uint64            `json:"user_id"`
	Window      Window            `json:"window"`
	Guests      int               `json:"guests"`
	Mobile      string            `json:"mobile"`
	Lines       []ReservationLine `json:"rooms"`
	Subtotal    Money             `json:"subtotal"`
	Tax         Money             `json:"tax"`
	GrandTotal  Money             `json:"grand_total"`
	TotalGuests int               `json:"total_guests"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ApplyTotals copies calculator output onto the cart.
func (c *Cart) ApplyTotals(t Totals) {
	c.Lines = t.Lines
	c.Subtotal = t.Subtotal
	c.Tax = t.Tax
	c.GrandTotal = t.GrandTotal
	c.TotalGuests = t.TotalGuests
}

// Live reports whether the cart still holds inventory at now.
func (c *Cart) Live(now time.Time) bool {
	return c.ExpiresAt == nil || c.ExpiresAt.After(now)
}
