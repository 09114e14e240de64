package model

import "time"

// Window is a half-open stay interval [CheckIn, CheckOut). Both ends
// are normalised to midnight UTC so that stays are measured in whole
// days.
type Window struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// Earliest and Latest bound the "all windows" query used when a
// capacity floor must account for every booking still in force.
var (
	Earliest = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	Latest   = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NewWindow returns a window with both ends truncated to days.
func NewWindow(checkIn, checkOut time.Time) Window {
	return Window{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
}

// Valid reports whether the window has a positive length.
func (w Window) Valid() bool { return w.CheckOut.After(w.CheckIn) }
