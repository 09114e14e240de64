package queue

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var eventTitles = map[string]string{
	EventBookingConfirmed: "Booking confirmed",
	EventBookingCancelled: "Booking cancelled",
	EventBookingRefunded:  "Booking refunded",
}

// FormatEvent renders ev as one human-readable log line, amounts
// grouped the way the given locale writes them.
func FormatEvent(ev BookingEvent, tag language.Tag) string {
	p := message.NewPrinter(tag)
	title, ok := eventTitles[ev.Type]
	if !ok {
		title = ev.Type
	}
	rooms := make([]string, 0, len(ev.Rooms))
	for _, r := range ev.Rooms {
		rooms = append(rooms, fmt.Sprintf("%dx%s", r.Count, r.RoomName))
	}
	line := fmt.Sprintf("[%s] %s | booking_id=%d | user_id=%d | email=%q | stay=%s..%s | guests=%d | total=%s INR | rooms=[%s]",
		ev.At, title, ev.BookingID, ev.UserID, ev.Email, ev.CheckIn, ev.CheckOut, ev.TotalGuests,
		p.Sprintf("%.2f", ev.GrandTotal.Major()), strings.Join(rooms, ","))
	if ev.RefundID != "" {
		line += " | refund_id=" + ev.RefundID
	}
	return line + "\n"
}
