package model

// Quote is the price snapshot taken from a RoomType when a line is
// resolved. Later catalogue edits never change a stored quote.
type Quote struct {
	RoomName  string `json:"room_name"`
	UnitPrice Money  `json:"unit_price"`
	Capacity  int    `json:"capacity"`
}

// ReservationLine is one room type and unit count within a cart or a
// booking. Lunch and Dinner hold the per-guest price of the selected
// meal, zero meaning not selected. The computed fields are filled in by
// the pricing calculator.
type ReservationLine struct {
	RoomTypeID    uint64 `json:"room_type_id"`
	Quote         Quote  `json:"quote"`
	Count         int    `json:"count"`
	GuestsPerUnit int    `json:"guests_per_unit"`
	Lunch         Money  `json:"lunch"`
	Dinner        Money  `json:"dinner"`

	Nights       int   `json:"nights"`
	UnitGuests   int   `json:"unit_guests"`
	RoomSubtotal Money `json:"room_subtotal"`
	MealSubtotal Money `json:"meal_subtotal"`
	LineTotal    Money `json:"line_total"`
}

// Totals are the aggregate figures of a set of lines.
type Totals struct {
	Lines       []ReservationLine `json:"lines"`
	Subtotal    Money             `json:"subtotal"`
	Tax         Money             `json:"tax"`
	GrandTotal  Money             `json:"grand_total"`
	TotalGuests int               `json:"total_guests"`
}

// UnitsByRoomType sums line counts per room type.
func UnitsByRoomType(lines []ReservationLine) map[uint64]int {
	out := make(map[uint64]int, len(lines))
	for _, l := range lines {
		out[l.RoomTypeID] += l.Count
	}
	return out
}
