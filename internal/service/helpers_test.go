package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/queue"
	"github.com/iliyamo/hotel-reservation/internal/testutil"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []queue.BookingEvent
}

func (r *recordingNotifier) Notify(ev queue.BookingEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingNotifier) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type env struct {
	db       *sql.DB
	clock    *testutil.Clock
	notifier *recordingNotifier
	carts    *CartService
	bookings *BookingService
	rooms    *RoomService
}

var start = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func newEnv(t testing.TB, holdTTL time.Duration) *env {
	t.Helper()
	e := &env{
		db:       testutil.NewDB(t),
		clock:    testutil.NewClock(start),
		notifier: &recordingNotifier{},
	}
	opts := Options{Locker: NewLocalLocker(), Now: e.clock.Now, HoldTTL: holdTTL}
	e.carts = NewCartService(e.db, opts)
	e.bookings = NewBookingService(e.db, e.notifier, opts)
	e.rooms = NewRoomService(e.db, opts)
	return e
}

func (e *env) roomType(t testing.TB, name string, units int) *model.RoomType {
	t.Helper()
	rt, created, err := e.rooms.Create(context.Background(), RoomTypeInput{
		Name:        name,
		Price:       500000,
		Capacity:    2,
		TotalUnits:  units,
		LunchPrice:  30000,
		DinnerPrice: 45000,
	})
	require.NoError(t, err)
	require.True(t, created)
	return rt
}

func (e *env) saveCart(userID uint64, in, out string, rooms ...CartLineInput) (*model.Cart, error) {
	return e.carts.Save(context.Background(), userID, SaveCartInput{CheckIn: in, CheckOut: out, Rooms: rooms})
}

func (e *env) available(t testing.TB, roomTypeID uint64, in, out string) int {
	t.Helper()
	w := model.Window{CheckIn: testutil.Date(in), CheckOut: testutil.Date(out)}
	av, err := e.rooms.AvailabilityOf(context.Background(), roomTypeID, w)
	require.NoError(t, err)
	return av.AvailableUnits
}

// book takes a user from cart to a confirmed booking.
func (e *env) book(t testing.TB, userID uint64, rt *model.RoomType, count int, in, out string) *model.Booking {
	t.Helper()
	ctx := context.Background()
	_, err := e.saveCart(userID, in, out, CartLineInput{RoomTypeID: rt.ID, Count: count})
	require.NoError(t, err)
	b, err := e.bookings.CreateOrUpdatePending(ctx, userID, CheckoutInput{Email: "guest@example.com"})
	require.NoError(t, err)
	b, err = e.bookings.Confirm(ctx, userID, b.ID, "pi_test")
	require.NoError(t, err)
	return b
}
