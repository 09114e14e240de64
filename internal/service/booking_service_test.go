package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/payment"
	"github.com/iliyamo/hotel-reservation/internal/queue"
	"github.com/iliyamo/hotel-reservation/internal/repository"
)

func TestCheckoutNeedsCart(t *testing.T) {
	e := newEnv(t, 0)
	_, err := e.bookings.CreateOrUpdatePending(context.Background(), 1, CheckoutInput{})
	assert.ErrorIs(t, err, model.ErrCartEmpty)
}

func TestCheckoutCreatesPendingBooking(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	rt := e.roomType(t, "Deluxe", 5)

	cart, err := e.carts.Save(ctx, 1, SaveCartInput{CheckIn: "2026-03-01", CheckOut: "2026-03-03", Mobile: "555",
		Rooms: []CartLineInput{{RoomTypeID: rt.ID, Count: 2, Dinner: true}}})
	require.NoError(t, err)

	b, err := e.bookings.CreateOrUpdatePending(ctx, 1, CheckoutInput{Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, b.Status)
	assert.Equal(t, model.PaymentUnpaid, b.PaymentStatus)
	assert.Equal(t, cart.GrandTotal, b.GrandTotal)
	require.Len(t, b.Lines, 1)
	assert.Equal(t, cart.Lines[0].LineTotal, b.Lines[0].LineTotal)
	assert.Equal(t, "555", b.Mobile)
	assert.Nil(t, b.PaymentRef)

	// The cart is still the hold; the pending booking is not counted.
	assert.Equal(t, 3, e.available(t, rt.ID, "2026-03-01", "2026-03-03"))
	_, err = repository.NewCartRepo(e.db).GetByUser(ctx, 1)
	assert.NoError(t, err)
}

func TestCheckoutRefreshesOwnPendingBooking(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	rt := e.roomType(t, "Deluxe", 5)

	_, err := e.saveCart(1, "2026-03-01", "2026-03-03", CartLineInput{RoomTypeID: rt.ID, Count: 1})
	require.NoError(t, err)
	first, err := e.bookings.CreateOrUpdatePending(ctx, 1, CheckoutInput{Email: "ana@example.com"})
	require.NoError(t, err)

	_, err = e.saveCart(1, "2026-03-01", "2026-03-04", CartLineInput{RoomTypeID: rt.ID, Count: 3})
	require.NoError(t, err)
	again, err := e.bookings.CreateOrUpdatePending(ctx, 1, CheckoutInput{BookingID: first.ID})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "ana@example.com", again.Email)
	assert.Equal(t, 3, again.Lines[0].Count)
	assert.Equal(t, 3, again.Lines[0].Nights)

	stored, err := e.bookings.Get(ctx, first.ID, Actor{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, again.GrandTotal, stored.GrandTotal)

	_, err = e.bookings.CreateOrUpdatePending(ctx, 2, CheckoutInput{BookingID: first.ID})
	assert.ErrorIs(t, err, model.ErrCartEmpty)

	_, err = e.saveCart(2, "2026-03-10", "2026-03-11", CartLineInput{RoomTypeID: rt.ID, Count: 1})
	require.NoError(t, err)
	_, err = e.bookings.CreateOrUpdatePending(ctx, 2, CheckoutInput{BookingID: first.ID})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = e.bookings.Confirm(ctx, 1, first.ID, "pi_1")
	require.NoError(t, err)
	_, err = e.saveCart(1, "2026-03-10", "2026-03-11", CartLineInput{RoomTypeID: rt.ID, Count: 1})
	require.NoError(t, err)
	_, err = e.bookings.CreateOrUpdatePending(ctx, 1, CheckoutInput{BookingID: first.ID})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestConfirmPromotesCartToCommitment(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	rt := e.roomType(t, "Deluxe", 5)

	b := e.book(t, 1, rt, 2, "2026-03-01", "2026-03-03")
	assert.Equal(t, model.StatusConfirmed, b.Status)
	assert.Equal(t, model.PaymentPaid, b.PaymentStatus)
	require.NotNil(t, b.PaymentRef)
	assert.Equal(t, "pi_test", *b.PaymentRef)

	_, err := repository.NewCartRepo(e.db).GetByUser(ctx, 1)
	assert.ErrorIs(t, err, model.ErrCartNotFound)

	av, err := e.rooms.AvailabilityOf(ctx, rt.ID, b.Window)
	require.NoError(t, err)
	assert.Equal(t, 2, av.CommittedUnits)
	assert.Equal(t, 0, av.HeldUnits)
	assert.Equal(t, 3, av.AvailableUnits)

	assert.Equal(t, []string{queue.EventBookingConfirmed}, e.notifier.types())
}

func TestConfirmGuards(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	rt := e.roomType(t, "Deluxe", 5)

	_, err := e.saveCart(1, "2026-03-01", "2026-03-03", CartLineInput{RoomTypeID: rt.ID, Count: 1})
	require.NoError(t, err)
	b, err := e.bookings.CreateOrUpdatePending(ctx, 1, CheckoutInput{})
	require.NoError(t, err)

	_, err = e.bookings.Confirm(ctx, 1, b.ID, " ")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = e.bookings.Confirm(ctx, 2, b.ID, "pi_x")
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = e.bookings.Confirm(ctx, 1, 999, "pi_x")
	assert.ErrorIs(t, err, model.ErrBookingNotFound)

	_, err = e.bookings.Confirm(ctx, 1, b.ID, "pi_x")
	require.NoError(t, err)
	_, err = e.bookings.Confirm(ctx, 1, b.ID, "pi_x")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = e.bookings.Cancel(ctx, b.ID, Actor{UserID: 1})
	require.NoError(t, err)
	_, err = e.bookings.Confirm(ctx, 1, b.ID, "pi_x")
	assert.ErrorIs(t, err, model.ErrAlreadyCancelled)
}

func TestConfirmRevalidatesCapacity(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	rt := e.roomType(t, "Deluxe", 1)

	_, err := e.saveCart(1, "2026-03-01", "2026-03-03", CartLineInput{RoomTypeID: rt.ID, Count: 1})
	require.NoError(t, err)
	pending, err := e.bookings.CreateOrUpdatePending(ctx, 1, CheckoutInput{})
	require.NoError(t, err)

	// The first user lets go of the hold and a second user books the unit.
	require.NoError(t, e.carts.Clear(ctx, 1))
	e.book(t, 2, rt, 1, "2026-03-02", "2026-03-04")

	_, err = e.bookings.Confirm(ctx, 1, pending.ID, "pi_late")
	assert.ErrorIs(t, err, model.ErrInsufficientCapacity)

	still, err := e.bookings.Get(ctx, pending.ID, Actor{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, still.Status)
	assert.Equal(t, model.PaymentUnpaid, still.PaymentStatus)
}

func TestCancel(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	rt := e.roomType(t, "Deluxe", 5)

	paid := e.book(t, 1, rt, 2, "2026-03-01", "2026-03-03")

	_, err := e.bookings.Cancel(ctx, paid.ID, Actor{UserID: 2})
	assert.ErrorIs(t, err, model.ErrForbidden)

	got, err := e.bookings.Cancel(ctx, paid.ID, Actor{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.True(t, got.RefundPending)
	assert.False(t, got.IsRefunded)
	assert.Equal(t, 5, e.available(t, rt.ID, "2026-03-01", "2026-03-03"))

	_, err = e.bookings.Cancel(ctx, paid.ID, Actor{Admin: true})
	assert.ErrorIs(t, err, model.ErrAlreadyCancelled)

	_, err = e.saveCart(3, "2026-04-01", "2026-04-02", CartLineInput{RoomTypeID: rt.ID, Count: 1})
	require.NoError(t, err)
	unpaid, err := e.bookings.CreateOrUpdatePending(ctx, 3, CheckoutInput{})
	require.NoError(t, err)
	got, err = e.bookings.Cancel(ctx, unpaid.ID, Actor{Admin: true})
	require.NoError(t, err)
	assert.False(t, got.RefundPending)

	assert.Equal(t, []string{queue.EventBookingConfirmed, queue.EventBookingCancelled, queue.EventBookingCancelled},
		e.notifier.types())
}

func TestRefundFlow(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	rt := e.roomType(t, "Deluxe", 5)
	gw := payment.NewOffline()

	b := e.book(t, 1, rt, 1, "2026-03-01", "2026-03-03")
	_, err := e.bookings.Refund(ctx, b.ID, gw)
	assert.ErrorIs(t, err, model.ErrNoRefundPending)

	_, err = e.bookings.Cancel(ctx, b.ID, Actor{UserID: 1})
	require.NoError(t, err)

	got, err := e.bookings.Refund(ctx, b.ID, gw)
	require.NoError(t, err)
	assert.True(t, got.IsRefunded)
	assert.False(t, got.RefundPending)
	assert.Equal(t, model.PaymentRefunded, got.PaymentStatus)
	require.NotNil(t, got.RefundID)

	_, err = e.bookings.Refund(ctx, b.ID, gw)
	assert.ErrorIs(t, err, model.ErrAlreadyRefunded)
	_, err = e.bookings.PrepareRefund(ctx, 999)
	assert.ErrorIs(t, err, model.ErrBookingNotFound)

	assert.Contains(t, e.notifier.types(), queue.EventBookingRefunded)
}

func TestConcurrentRefundsRecordOnce(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	rt := e.roomType(t, "Deluxe", 5)

	b := e.book(t, 1, rt, 1, "2026-03-01", "2026-03-03")
	_, err := e.bookings.Cancel(ctx, b.ID, Actor{Admin: true})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.bookings.CompleteRefund(ctx, b.ID, "re_race")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, model.ErrAlreadyRefunded), "unexpected error %v", err)
	}
	assert.Equal(t, 1, succeeded)
}

func TestSetPaymentStatus(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	rt := e.roomType(t, "Deluxe", 5)
	b := e.book(t, 1, rt, 1, "2026-03-01", "2026-03-03")

	_, err := e.bookings.SetPaymentStatus(ctx, b.ID, "refunded")
	assert.ErrorIs(t, err, model.ErrInvalidPaymentStatus)

	got, err := e.bookings.SetPaymentStatus(ctx, b.ID, model.PaymentUnpaid)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentUnpaid, got.PaymentStatus)
	assert.Nil(t, got.PaymentRef)

	got, err = e.bookings.SetPaymentStatus(ctx, b.ID, model.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)

	// Cancelling without a payment reference still flags the refund,
	// but the refund itself cannot be requested.
	_, err = e.bookings.Cancel(ctx, b.ID, Actor{Admin: true})
	require.NoError(t, err)
	_, err = e.bookings.PrepareRefund(ctx, b.ID)
	assert.ErrorIs(t, err, model.ErrNoRefundPending)

	_, err = e.bookings.SetPaymentStatus(ctx, 999, model.PaymentPaid)
	assert.ErrorIs(t, err, model.ErrBookingNotFound)
}

func TestPayingCancelledBookingQueuesNoRefund(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	rt := e.roomType(t, "Deluxe", 5)
	b := e.book(t, 1, rt, 1, "2026-03-01", "2026-03-03")

	_, err := e.bookings.SetPaymentStatus(ctx, b.ID, model.PaymentUnpaid)
	require.NoError(t, err)
	cancelled, err := e.bookings.Cancel(ctx, b.ID, Actor{Admin: true})
	require.NoError(t, err)
	assert.False(t, cancelled.RefundPending)

	got, err := e.bookings.SetPaymentStatus(ctx, b.ID, model.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.False(t, got.RefundPending)

	_, err = e.bookings.PrepareRefund(ctx, b.ID)
	assert.ErrorIs(t, err, model.ErrNoRefundPending)
}

func TestListAndDelete(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	rt := e.roomType(t, "Deluxe", 50)

	for uid := uint64(1); uid <= 3; uid++ {
		e.book(t, uid, rt, 1, "2026-03-01", "2026-03-03")
	}
	mine, err := e.bookings.ListMine(ctx, 2)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	page, err := e.bookings.ListAll(ctx, model.BookingFilter{PerPage: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, MaxPerPage, page.PerPage)
	assert.Equal(t, 3, page.Total)

	_, err = e.bookings.Get(ctx, mine[0].ID, Actor{UserID: 1})
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = e.bookings.Get(ctx, mine[0].ID, Actor{Admin: true})
	assert.NoError(t, err)

	require.NoError(t, e.bookings.Delete(ctx, mine[0].ID))
	assert.ErrorIs(t, e.bookings.Delete(ctx, mine[0].ID), model.ErrBookingNotFound)
	assert.Equal(t, 48, e.available(t, rt.ID, "2026-03-01", "2026-03-03"))
}
