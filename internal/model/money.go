package model

import (
	"fmt"
	"math"
)

// Money is an amount in minor currency units (paise). All pricing
// arithmetic is done on integers so totals are exact and repeatable.
type Money int64

// FromMajor converts a major-unit amount such as 2499.50 into Money,
// rounding half away from zero to the nearest minor unit.
func FromMajor(v float64) Money {
	return Money(math.Round(v * 100))
}

// Major returns the amount in major units. Only used for display.
func (m Money) Major() float64 { return float64(m) / 100 }

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
