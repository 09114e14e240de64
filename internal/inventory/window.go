// Package inventory answers "how many units of a room type are free for
// a stay window" from confirmed bookings and live cart holds.
package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

// ParseDate accepts a calendar date or an RFC 3339 timestamp and
// returns the UTC day it falls on.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse date %q", model.ErrInvalidWindow, s)
}

// ParseWindow builds a stay window from request parameters. When both
// are empty the window defaults to [today, tomorrow) relative to now.
// A window that is half-specified, unparsable or not strictly positive
// is rejected with model.ErrInvalidWindow.
func ParseWindow(checkIn, checkOut string, now time.Time) (model.Window, error) {
	if checkIn == "" && checkOut == "" {
		today := model.Day(now)
		return model.Window{CheckIn: today, CheckOut: today.AddDate(0, 0, 1)}, nil
	}
	if checkIn == "" || checkOut == "" {
		return model.Window{}, fmt.Errorf("%w: both check-in and check-out are required", model.ErrInvalidWindow)
	}
	in, err := ParseDate(checkIn)
	if err != nil {
		return model.Window{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return model.Window{}, err
	}
	w := model.Window{CheckIn: in, CheckOut: out}
	if !w.Valid() {
		return model.Window{}, fmt.Errorf("%w: check-out must be after check-in", model.ErrInvalidWindow)
	}
	return w, nil
}

// Overlaps reports whether two half-open windows share at least one
// instant. Back-to-back stays, where one checks out the day the other
// checks in, do not overlap.
func Overlaps(a, b model.Window) bool {
	return a.CheckIn.Before(b.CheckOut) && a.CheckOut.After(b.CheckIn)
}
