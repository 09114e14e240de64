package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/repository"
)

func TestCartSavePricesAndFreezesQuote(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	rt := e.roomType(t, "Deluxe", 5)

	cart, err := e.saveCart(1, "2026-03-01", "2026-03-03", CartLineInput{RoomTypeID: rt.ID, Count: 2, Lunch: true})
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	l := cart.Lines[0]
	assert.Equal(t, 2, l.Nights)
	assert.Equal(t, 2, l.GuestsPerUnit)
	assert.Equal(t, model.Money(30000), l.Lunch)
	assert.Zero(t, l.Dinner)
	assert.Equal(t, model.Money(2000000), l.RoomSubtotal)
	assert.Equal(t, model.Money(240000), l.MealSubtotal)
	assert.Equal(t, model.Money(2240000), cart.Subtotal)
	assert.Equal(t, model.Money(403200), cart.Tax)
	assert.Equal(t, model.Money(2643200), cart.GrandTotal)
	assert.Equal(t, 4, cart.Guests)

	price := model.Money(900000)
	_, err = e.rooms.Update(ctx, rt.ID, RoomTypePatch{Price: &price})
	require.NoError(t, err)

	got, err := e.carts.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.Money(500000), got.Lines[0].Quote.UnitPrice)
	assert.Equal(t, cart.GrandTotal, got.GrandTotal)
}

func TestCartEmptySaveClears(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	rt := e.roomType(t, "Deluxe", 5)

	_, err := e.saveCart(1, "2026-03-01", "2026-03-03", CartLineInput{RoomTypeID: rt.ID, Count: 1})
	require.NoError(t, err)

	cart, err := e.saveCart(1, "", "")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)

	_, err = repository.NewCartRepo(e.db).GetByUser(ctx, 1)
	assert.ErrorIs(t, err, model.ErrCartNotFound)
}

func TestCartSaveRejectsBadInput(t *testing.T) {
	e := newEnv(t, 0)
	rt := e.roomType(t, "Deluxe", 5)
	line := CartLineInput{RoomTypeID: rt.ID, Count: 1}

	_, err := e.saveCart(1, "", "2026-03-03", line)
	assert.ErrorIs(t, err, model.ErrInvalidWindow)
	_, err = e.saveCart(1, "2026-03-03", "2026-03-01", line)
	assert.ErrorIs(t, err, model.ErrInvalidWindow)
	_, err = e.saveCart(1, "2026-03-01", "2026-03-03", line, CartLineInput{RoomTypeID: 999, Count: 1})
	assert.ErrorIs(t, err, model.ErrRoomNotFound)
	_, err = e.saveCart(1, "2026-03-01", "2026-03-03", CartLineInput{RoomTypeID: rt.ID, Count: 1, Guests: 3})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = repository.NewCartRepo(e.db).GetByUser(context.Background(), 1)
	assert.ErrorIs(t, err, model.ErrCartNotFound, "a failed save must not leave a cart behind")
}

func TestCartHoldsInventory(t *testing.T) {
	e := newEnv(t, 0)
	rt := e.roomType(t, "Deluxe", 5)
	assert.Equal(t, 5, e.available(t, rt.ID, "2026-03-01", "2026-03-03"))

	_, err := e.saveCart(1, "2026-03-01", "2026-03-03", CartLineInput{RoomTypeID: rt.ID, Count: 5})
	require.NoError(t, err)

	assert.Equal(t, 0, e.available(t, rt.ID, "2026-03-02", "2026-03-04"))
	assert.Equal(t, 5, e.available(t, rt.ID, "2026-03-03", "2026-03-05"))

	_, err = e.saveCart(2, "2026-03-02", "2026-03-03", CartLineInput{RoomTypeID: rt.ID, Count: 1})
	assert.ErrorIs(t, err, model.ErrInsufficientCapacity)

	// The holder's own cart does not count against a resave.
	_, err = e.saveCart(1, "2026-03-01", "2026-03-03", CartLineInput{RoomTypeID: rt.ID, Count: 5})
	assert.NoError(t, err)

	_, err = e.saveCart(2, "2026-03-03", "2026-03-04", CartLineInput{RoomTypeID: rt.ID, Count: 5})
	assert.NoError(t, err)
}

func TestCartSplitLinesCountTogether(t *testing.T) {
	e := newEnv(t, 0)
	rt := e.roomType(t, "Deluxe", 3)

	_, err := e.saveCart(1, "2026-03-01", "2026-03-03",
		CartLineInput{RoomTypeID: rt.ID, Count: 2}, CartLineInput{RoomTypeID: rt.ID, Count: 2, Lunch: true})
	assert.ErrorIs(t, err, model.ErrInsufficientCapacity)
}

func TestCartKeepsMobile(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	rt := e.roomType(t, "Deluxe", 5)
	line := CartLineInput{RoomTypeID: rt.ID, Count: 1}

	_, err := e.carts.Save(ctx, 1, SaveCartInput{CheckIn: "2026-03-01", CheckOut: "2026-03-02", Mobile: "9876543210", Rooms: []CartLineInput{line}})
	require.NoError(t, err)
	cart, err := e.carts.Save(ctx, 1, SaveCartInput{CheckIn: "2026-03-01", CheckOut: "2026-03-03", Guests: 1, Rooms: []CartLineInput{line}})
	require.NoError(t, err)
	assert.Equal(t, "9876543210", cart.Mobile)
	assert.Equal(t, 1, cart.Guests)
}

func TestCartRemoveLine(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	deluxe := e.roomType(t, "Deluxe", 5)
	suite := e.roomType(t, "Suite", 2)

	_, err := e.carts.RemoveLine(ctx, 1, deluxe.ID)
	assert.ErrorIs(t, err, model.ErrCartNotFound)

	_, err = e.saveCart(1, "2026-03-01", "2026-03-02",
		CartLineInput{RoomTypeID: deluxe.ID, Count: 1}, CartLineInput{RoomTypeID: suite.ID, Count: 1, Dinner: true})
	require.NoError(t, err)

	cart, err := e.carts.RemoveLine(ctx, 1, deluxe.ID)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, suite.ID, cart.Lines[0].RoomTypeID)
	// 5000.00 room + 2 guests x 450.00 dinner
	assert.Equal(t, model.Money(590000), cart.Subtotal)
	assert.Equal(t, model.Money(106200), cart.Tax)

	cart, err = e.carts.RemoveLine(ctx, 1, suite.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	_, err = repository.NewCartRepo(e.db).GetByUser(ctx, 1)
	assert.ErrorIs(t, err, model.ErrCartNotFound)
}

func TestCartHoldExpires(t *testing.T) {
	e := newEnv(t, 15*time.Minute)
	ctx := context.Background()
	rt := e.roomType(t, "Deluxe", 1)

	cart, err := e.saveCart(1, "2026-03-01", "2026-03-02", CartLineInput{RoomTypeID: rt.ID, Count: 1})
	require.NoError(t, err)
	require.NotNil(t, cart.ExpiresAt)
	assert.Equal(t, 0, e.available(t, rt.ID, "2026-03-01", "2026-03-02"))

	e.clock.Advance(16 * time.Minute)
	assert.Equal(t, 1, e.available(t, rt.ID, "2026-03-01", "2026-03-02"))
	got, err := e.carts.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got.Lines)

	_, err = e.saveCart(2, "2026-03-01", "2026-03-02", CartLineInput{RoomTypeID: rt.ID, Count: 1})
	require.NoError(t, err)
	_, err = repository.NewCartRepo(e.db).GetByUser(ctx, 1)
	assert.ErrorIs(t, err, model.ErrCartNotFound, "expired carts are purged on save")
}

func TestConcurrentCartsNeverOverbook(t *testing.T) {
	e := newEnv(t, 0)
	rt := e.roomType(t, "Deluxe", 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, full := 0, 0
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(uid uint64) {
			defer wg.Done()
			_, err := e.saveCart(uid, "2026-03-01", "2026-03-03", CartLineInput{RoomTypeID: rt.ID, Count: 1})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, model.ErrInsufficientCapacity):
				full++
			default:
				t.Errorf("user %d: unexpected error %v", uid, err)
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 7, full)
	assert.Equal(t, 0, e.available(t, rt.ID, "2026-03-01", "2026-03-03"))
}

func TestCartTotalsMatchCalculator(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	rt := e.roomType(t, "Deluxe", 50)

	for i := 1; i <= 5; i++ {
		_, err := e.saveCart(1, "2026-03-01", fmt.Sprintf("2026-03-%02d", 1+i),
			CartLineInput{RoomTypeID: rt.ID, Count: i, Guests: 1, Lunch: i%2 == 0, Dinner: true})
		require.NoError(t, err)

		got, err := e.carts.Get(ctx, 1)
		require.NoError(t, err)
		var sub model.Money
		for _, l := range got.Lines {
			sub += l.LineTotal
		}
		assert.Equal(t, sub, got.Subtotal)
		assert.Equal(t, got.Subtotal+got.Tax, got.GrandTotal)
		assert.Equal(t, i, got.Lines[0].Nights)
	}
}
