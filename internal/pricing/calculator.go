// Package pricing computes stay totals from resolved reservation lines.
// It is pure: no I/O, no clock, and the same input always yields the
// same output.
package pricing

import (
	"fmt"
	"math"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// TaxPercent is the flat goods and services tax applied to subtotals.
const TaxPercent = 18

// Nights returns the number of billable nights for w: the stay length
// in days rounded up, never less than one.
func Nights(w model.Window) int {
	d := w.CheckOut.Sub(w.CheckIn)
	n := int(math.Ceil(d.Hours() / 24))
	if n < 1 {
		return 1
	}
	return n
}

// Tax returns TaxPercent of subtotal rounded half-up to the minor unit.
func Tax(subtotal model.Money) model.Money {
	return (subtotal*TaxPercent + 50) / 100
}

// Calculate fills in the per-line figures and returns the totals for
// lines over nights. A line without GuestsPerUnit is priced at the full
// capacity of its quote, and a count below one is treated as one. A
// line whose quote was never resolved fails the whole batch with
// model.ErrRoomNotFound. The input slice is not modified.
func Calculate(lines []model.ReservationLine, nights int) (model.Totals, error) {
	if nights < 1 {
		nights = 1
	}
	out := model.Totals{Lines: make([]model.ReservationLine, 0, len(lines))}
	for i, l := range lines {
		if l.RoomTypeID == 0 || l.Quote.Capacity < 1 {
			return model.Totals{}, fmt.Errorf("line %d: %w", i, model.ErrRoomNotFound)
		}
		if l.Count < 1 {
			l.Count = 1
		}
		if l.GuestsPerUnit < 1 {
			l.GuestsPerUnit = l.Quote.Capacity
		}
		n := model.Money(nights)
		l.Nights = nights
		l.UnitGuests = l.GuestsPerUnit * l.Count
		l.RoomSubtotal = l.Quote.UnitPrice * model.Money(l.Count) * n
		l.MealSubtotal = (l.Lunch + l.Dinner) * model.Money(l.UnitGuests) * n
		l.LineTotal = l.RoomSubtotal + l.MealSubtotal

		out.Lines = append(out.Lines, l)
		out.Subtotal += l.LineTotal
		out.TotalGuests += l.UnitGuests
	}
	out.Tax = Tax(out.Subtotal)
	out.GrandTotal = out.Subtotal + out.Tax
	return out, nil
}
