package model

import "time"

// MaxImages is the largest number of images a room type may carry.
const MaxImages = 5

// Amenities lists the boolean feature flags of a room type.
type Amenities struct {
	Wifi      bool `json:"wifi" yaml:"wifi"`
	Breakfast bool `json:"breakfast" yaml:"breakfast"`
	AC        bool `json:"ac" yaml:"ac"`
	TV        bool `json:"tv" yaml:"tv"`
}

// DefaultAmenities are applied to room types created without explicit flags.
func DefaultAmenities() Amenities {
	return Amenities{Wifi: true, Breakfast: true, AC: true, TV: true}
}

// RoomType is a class of interchangeable rooms sharing price, capacity
// and amenities. TotalUnits is the physical inventory count.
//
// Fields:
//
//	Price       – nightly price for one unit.
//	Capacity    – maximum guests in one unit, always >= 1.
//	LunchPrice  – per-guest per-night lunch add-on.
//	DinnerPrice – per-guest per-night dinner add-on.
//	Version     – bumped on every capacity-sensitive write; doubles as
//	              the row lock for the capacity check.
type RoomType struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       Money     `json:"price"`
	Capacity    int       `json:"capacity"`
	TotalUnits  int       `json:"total_units"`
	LunchPrice  Money     `json:"lunch_price"`
	DinnerPrice Money     `json:"dinner_price"`
	Amenities   Amenities `json:"amenities"`
	Images      []string  `json:"images"`
	Version     int64     `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Availability is a room type annotated with its usage for one window.
type Availability struct {
	RoomType
	CommittedUnits int `json:"committed_units"`
	HeldUnits      int `json:"held_units"`
	AvailableUnits int `json:"available_units"`
}
