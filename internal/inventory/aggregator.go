package inventory

import (
	"context"
	"time"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// Catalog reads room types.
type Catalog interface {
	ListRoomTypes(ctx context.Context) ([]model.RoomType, error)
	GetRoomType(ctx context.Context, id uint64) (*model.RoomType, error)
}

// Counter sums units consumed by bookings and carts. Implementations
// must use the same overlap predicate as Overlaps.
type Counter interface {
	// CommittedUnits sums line counts of confirmed bookings for the
	// room type whose window overlaps w.
	CommittedUnits(ctx context.Context, roomTypeID uint64, w model.Window) (int, error)
	// HeldUnits sums line counts of live carts for the room type whose
	// window overlaps w.
	HeldUnits(ctx context.Context, roomTypeID uint64, w model.Window, scope HoldScope) (int, error)
}

// HoldScope selects which carts count as holds. Carts that expired at
// or before Now are ignored, and so is the cart of ExcludeUserID when
// it is non-zero.
type HoldScope struct {
	Now           time.Time
	ExcludeUserID uint64
}

// Usage is the consumed inventory of one room type.
type Usage struct {
	Committed int
	Held      int
}

// Available returns the free units. With clamp the result never goes
// below zero; capacity checks use the raw value.
func Available(total int, u Usage, clamp bool) int {
	n := total - u.Committed - u.Held
	if clamp && n < 0 {
		return 0
	}
	return n
}

// ListFilter narrows a listing. In the admin view nothing is dropped.
type ListFilter struct {
	AdminView bool
	Guests    int
	MaxPrice  model.Money
}

// Aggregator joins the catalog with usage counts.
type Aggregator struct {
	catalog Catalog
	counter Counter
}

// New returns an Aggregator over the given catalog and counter. Pass
// transaction-bound implementations to read inside a transaction.
func New(catalog Catalog, counter Counter) *Aggregator {
	return &Aggregator{catalog: catalog, counter: counter}
}

// Usage returns committed and held units of one room type for w.
func (a *Aggregator) Usage(ctx context.Context, roomTypeID uint64, w model.Window, scope HoldScope) (Usage, error) {
	committed, err := a.counter.CommittedUnits(ctx, roomTypeID, w)
	if err != nil {
		return Usage{}, err
	}
	held, err := a.counter.HeldUnits(ctx, roomTypeID, w, scope)
	if err != nil {
		return Usage{}, err
	}
	return Usage{Committed: committed, Held: held}, nil
}

// Floor returns the usage that a unit count reduction must respect:
// confirmed bookings that have not checked out by today plus every
// live cart regardless of its window.
func (a *Aggregator) Floor(ctx context.Context, roomTypeID uint64, now time.Time) (Usage, error) {
	committed, err := a.counter.CommittedUnits(ctx, roomTypeID, model.Window{CheckIn: model.Day(now), CheckOut: model.Latest})
	if err != nil {
		return Usage{}, err
	}
	held, err := a.counter.HeldUnits(ctx, roomTypeID, model.Window{CheckIn: model.Earliest, CheckOut: model.Latest}, HoldScope{Now: now})
	if err != nil {
		return Usage{}, err
	}
	return Usage{Committed: committed, Held: held}, nil
}

// Get returns one room type annotated for w.
func (a *Aggregator) Get(ctx context.Context, roomTypeID uint64, w model.Window, scope HoldScope) (*model.Availability, error) {
	rt, err := a.catalog.GetRoomType(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}
	av, err := a.annotate(ctx, *rt, w, scope, true)
	if err != nil {
		return nil, err
	}
	return &av, nil
}

// List returns every room type annotated for w, filtered by f. The
// admin view keeps every room type and leaves AvailableUnits unclamped,
// so over-allocation shows up as a negative count.
func (a *Aggregator) List(ctx context.Context, w model.Window, scope HoldScope, f ListFilter) ([]model.Availability, error) {
	rts, err := a.catalog.ListRoomTypes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Availability, 0, len(rts))
	for _, rt := range rts {
		av, err := a.annotate(ctx, rt, w, scope, !f.AdminView)
		if err != nil {
			return nil, err
		}
		if !f.AdminView && !f.keep(av) {
			continue
		}
		out = append(out, av)
	}
	return out, nil
}

func (a *Aggregator) annotate(ctx context.Context, rt model.RoomType, w model.Window, scope HoldScope, clamp bool) (model.Availability, error) {
	u, err := a.Usage(ctx, rt.ID, w, scope)
	if err != nil {
		return model.Availability{}, err
	}
	return model.Availability{
		RoomType:       rt,
		CommittedUnits: u.Committed,
		HeldUnits:      u.Held,
		AvailableUnits: Available(rt.TotalUnits, u, clamp),
	}, nil
}

func (f ListFilter) keep(av model.Availability) bool {
	if av.AvailableUnits <= 0 {
		return false
	}
	if f.Guests > 0 && av.AvailableUnits*av.Capacity < f.Guests {
		return false
	}
	if f.MaxPrice > 0 && av.Price > f.MaxPrice {
		return false
	}
	return true
}
