// Package queue defines the booking event payload and moves it over
// RabbitMQ: a publisher used by the booking service and a consumer
// that appends every event to a log file.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// Event types.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingRefunded  = "booking.refunded"
)

// DefaultQueue is the durable queue booking events are published to.
const DefaultQueue = "booking.events"

// RoomLine summarises one booked room type.
type RoomLine struct {
	RoomTypeID uint64 `json:"room_type_id"`
	RoomName   string `json:"room_name"`
	Count      int    `json:"count"`
}

// BookingEvent carries enough of a booking for downstream consumers to
// log or notify without querying the primary database.
type BookingEvent struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	BookingID   uint64      `json:"booking_id"`
	UserID      uint64      `json:"user_id"`
	Email       string      `json:"email"`
	CheckIn     string      `json:"check_in"`
	CheckOut    string      `json:"check_out"`
	Rooms       []RoomLine  `json:"rooms"`
	TotalGuests int         `json:"total_guests"`
	GrandTotal  model.Money `json:"grand_total"`
	RefundID    string      `json:"refund_id,omitempty"`
	At          string      `json:"at"`
}

// NewBookingEvent snapshots b into an event of the given type.
func NewBookingEvent(typ string, b *model.Booking, at time.Time) BookingEvent {
	ev := BookingEvent{
		ID:          uuid.NewString(),
		Type:        typ,
		BookingID:   b.ID,
		UserID:      b.UserID,
		Email:       b.Email,
		CheckIn:     b.Window.CheckIn.Format("2006-01-02"),
		CheckOut:    b.Window.CheckOut.Format("2006-01-02"),
		TotalGuests: b.TotalGuests,
		GrandTotal:  b.GrandTotal,
		At:          at.UTC().Format(time.RFC3339),
	}
	for _, l := range b.Lines {
		ev.Rooms = append(ev.Rooms, RoomLine{RoomTypeID: l.RoomTypeID, RoomName: l.Quote.RoomName, Count: l.Count})
	}
	if b.RefundID != nil {
		ev.RefundID = *b.RefundID
	}
	return ev
}
