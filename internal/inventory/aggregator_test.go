package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

type stay struct {
	roomTypeID uint64
	userID     uint64
	window     model.Window
	count      int
	status     string
	expiresAt  *time.Time
}

// memStore is an in-memory Catalog and Counter that applies the same
// overlap rule the SQL counters use.
type memStore struct {
	rooms    []model.RoomType
	bookings []stay
	carts    []stay
}

func (m *memStore) ListRoomTypes(context.Context) ([]model.RoomType, error) { return m.rooms, nil }

func (m *memStore) GetRoomType(_ context.Context, id uint64) (*model.RoomType, error) {
	for i := range m.rooms {
		if m.rooms[i].ID == id {
			rt := m.rooms[i]
			return &rt, nil
		}
	}
	return nil, model.ErrRoomNotFound
}

func (m *memStore) CommittedUnits(_ context.Context, id uint64, w model.Window) (int, error) {
	n := 0
	for _, b := range m.bookings {
		if b.roomTypeID == id && b.status == model.StatusConfirmed && Overlaps(b.window, w) {
			n += b.count
		}
	}
	return n, nil
}

func (m *memStore) HeldUnits(_ context.Context, id uint64, w model.Window, scope HoldScope) (int, error) {
	n := 0
	for _, c := range m.carts {
		if c.roomTypeID != id || !Overlaps(c.window, w) {
			continue
		}
		if scope.ExcludeUserID != 0 && c.userID == scope.ExcludeUserID {
			continue
		}
		if c.expiresAt != nil && !c.expiresAt.After(scope.Now) {
			continue
		}
		n += c.count
	}
	return n, nil
}

func newMem() *memStore {
	return &memStore{rooms: []model.RoomType{
		{ID: 1, Name: "Deluxe", Price: 500000, Capacity: 2, TotalUnits: 5},
		{ID: 2, Name: "Suite", Price: 1200000, Capacity: 4, TotalUnits: 2},
	}}
}

var now = time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)

func TestAvailabilityCountsOnlyConfirmedOverlaps(t *testing.T) {
	m := newMem()
	m.bookings = []stay{
		{roomTypeID: 1, window: win("2026-03-01", "2026-03-03"), count: 2, status: model.StatusConfirmed},
		{roomTypeID: 1, window: win("2026-03-02", "2026-03-04"), count: 1, status: model.StatusPending},
		{roomTypeID: 1, window: win("2026-03-02", "2026-03-04"), count: 1, status: model.StatusCancelled},
		{roomTypeID: 1, window: win("2026-03-03", "2026-03-05"), count: 3, status: model.StatusConfirmed},
	}
	agg := New(m, m)

	av, err := agg.Get(context.Background(), 1, win("2026-03-01", "2026-03-03"), HoldScope{Now: now})
	require.NoError(t, err)
	assert.Equal(t, 2, av.CommittedUnits)
	assert.Equal(t, 3, av.AvailableUnits)
}

func TestAvailabilitySubtractsLiveCarts(t *testing.T) {
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	m := newMem()
	m.carts = []stay{
		{roomTypeID: 1, userID: 10, window: win("2026-03-01", "2026-03-03"), count: 2},
		{roomTypeID: 1, userID: 11, window: win("2026-03-01", "2026-03-03"), count: 1, expiresAt: &past},
		{roomTypeID: 1, userID: 12, window: win("2026-03-02", "2026-03-03"), count: 1, expiresAt: &future},
	}
	agg := New(m, m)
	w := win("2026-03-01", "2026-03-03")

	u, err := agg.Usage(context.Background(), 1, w, HoldScope{Now: now})
	require.NoError(t, err)
	assert.Equal(t, Usage{Committed: 0, Held: 3}, u)

	u, err = agg.Usage(context.Background(), 1, w, HoldScope{Now: now, ExcludeUserID: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, u.Held)
}

func TestAvailableClamps(t *testing.T) {
	u := Usage{Committed: 4, Held: 3}
	assert.Equal(t, 0, Available(5, u, true))
	assert.Equal(t, -2, Available(5, u, false))
}

func TestListFilters(t *testing.T) {
	m := newMem()
	m.bookings = []stay{
		{roomTypeID: 2, window: win("2026-03-01", "2026-03-03"), count: 2, status: model.StatusConfirmed},
	}
	agg := New(m, m)
	w := win("2026-03-01", "2026-03-03")
	ctx := context.Background()

	public, err := agg.List(ctx, w, HoldScope{Now: now}, ListFilter{})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Deluxe", public[0].Name)

	admin, err := agg.List(ctx, w, HoldScope{Now: now}, ListFilter{AdminView: true})
	require.NoError(t, err)
	require.Len(t, admin, 2)
	assert.Equal(t, 0, admin[1].AvailableUnits)

	// Five free doubles host ten guests, not eleven.
	fits, err := agg.List(ctx, w, HoldScope{Now: now}, ListFilter{Guests: 10})
	require.NoError(t, err)
	assert.Len(t, fits, 1)
	tooMany, err := agg.List(ctx, w, HoldScope{Now: now}, ListFilter{Guests: 11})
	require.NoError(t, err)
	assert.Empty(t, tooMany)

	cheap, err := agg.List(ctx, w, HoldScope{Now: now}, ListFilter{MaxPrice: 400000})
	require.NoError(t, err)
	assert.Empty(t, cheap)
}

func TestAdminViewShowsOverAllocation(t *testing.T) {
	m := newMem()
	m.bookings = []stay{
		{roomTypeID: 2, window: win("2026-03-01", "2026-03-03"), count: 3, status: model.StatusConfirmed},
	}
	agg := New(m, m)
	w := win("2026-03-01", "2026-03-03")
	ctx := context.Background()

	admin, err := agg.List(ctx, w, HoldScope{Now: now}, ListFilter{AdminView: true})
	require.NoError(t, err)
	require.Len(t, admin, 2)
	assert.Equal(t, "Suite", admin[1].Name)
	assert.Equal(t, 3, admin[1].CommittedUnits)
	assert.Equal(t, -1, admin[1].AvailableUnits)

	public, err := agg.List(ctx, w, HoldScope{Now: now}, ListFilter{})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Deluxe", public[0].Name)

	one, err := agg.Get(ctx, 2, w, HoldScope{Now: now})
	require.NoError(t, err)
	assert.Equal(t, 0, one.AvailableUnits)
}

func TestFloorUsesFutureBookingsAndAllLiveCarts(t *testing.T) {
	m := newMem()
	m.bookings = []stay{
		{roomTypeID: 1, window: win("2026-02-10", "2026-02-12"), count: 4, status: model.StatusConfirmed},
		{roomTypeID: 1, window: win("2026-02-19", "2026-02-21"), count: 1, status: model.StatusConfirmed},
		{roomTypeID: 1, window: win("2026-06-01", "2026-06-05"), count: 2, status: model.StatusConfirmed},
	}
	m.carts = []stay{
		{roomTypeID: 1, userID: 3, window: win("2026-09-01", "2026-09-02"), count: 1},
	}
	agg := New(m, m)

	u, err := agg.Floor(context.Background(), 1, now)
	require.NoError(t, err)
	assert.Equal(t, Usage{Committed: 3, Held: 1}, u)
}

func TestGetUnknownRoomType(t *testing.T) {
	agg := New(newMem(), newMem())
	_, err := agg.Get(context.Background(), 99, win("2026-03-01", "2026-03-02"), HoldScope{Now: now})
	assert.ErrorIs(t, err, model.ErrRoomNotFound)
}
