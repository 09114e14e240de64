package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/payment"
	"github.com/iliyamo/hotel-reservation/internal/pricing"
	"github.com/iliyamo/hotel-reservation/internal/queue"
	"github.com/iliyamo/hotel-reservation/internal/repository"
)

// CheckoutInput identifies the pending booking to create or refresh.
type CheckoutInput struct {
	BookingID uint64 `json:"booking_id"`
	Email     string `json:"email" validate:"omitempty,email"`
	Mobile    string `json:"mobile" validate:"omitempty,max=32"`
}

// Actor is the caller of a booking operation.
type Actor struct {
	UserID uint64
	Admin  bool
}

// Default and maximum page sizes of the admin listing.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// BookingService drives bookings through
// pending -> confirmed -> cancelled and the refund flags.
type BookingService struct {
	db       *sql.DB
	notifier Notifier
	opts     Options
}

// NewBookingService returns a BookingService. A nil notifier drops
// events.
func NewBookingService(db *sql.DB, notifier Notifier, opts Options) *BookingService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &BookingService{db: db, notifier: notifier, opts: opts.withDefaults()}
}

// CreateOrUpdatePending snapshots the user's cart into a pending,
// unpaid booking. With in.BookingID set the user's existing pending
// booking is refreshed instead. The cart is left in place and keeps
// holding the rooms until the booking is confirmed.
func (s *BookingService) CreateOrUpdatePending(ctx context.Context, userID uint64, in CheckoutInput) (*model.Booking, error) {
	unlock, err := s.opts.Locker.Lock(ctx, userKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out *model.Booking
	err = repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		cart, err := repository.NewCartRepo(tx).GetByUser(ctx, userID)
		if errors.Is(err, model.ErrCartNotFound) {
			return model.ErrCartEmpty
		}
		if err != nil {
			return err
		}
		if len(cart.Lines) == 0 || !cart.Live(s.opts.Now()) {
			return model.ErrCartEmpty
		}
		rooms := repository.NewRoomTypeRepo(tx)
		for _, l := range cart.Lines {
			if _, err := rooms.GetRoomType(ctx, l.RoomTypeID); err != nil {
				return fmt.Errorf("room type %d: %w", l.RoomTypeID, err)
			}
		}
		totals, err := pricing.Calculate(cart.Lines, pricing.Nights(cart.Window))
		if err != nil {
			return err
		}

		mobile := strings.TrimSpace(in.Mobile)
		if mobile == "" {
			mobile = cart.Mobile
		}
		draft := &model.Booking{
			UserID:      userID,
			Email:       strings.TrimSpace(in.Email),
			Mobile:      mobile,
			Window:      cart.Window,
			Lines:       totals.Lines,
			TotalGuests: totals.TotalGuests,
			Subtotal:    totals.Subtotal,
			Tax:         totals.Tax,
			GrandTotal:  totals.GrandTotal,
		}

		bookings := repository.NewBookingRepo(tx)
		if in.BookingID == 0 {
			draft.Status = model.StatusPending
			draft.PaymentStatus = model.PaymentUnpaid
			if err := bookings.Create(ctx, draft); err != nil {
				return err
			}
			out = draft
			return nil
		}

		existing, err := bookings.GetByID(ctx, in.BookingID)
		if err != nil {
			return err
		}
		if existing.UserID != userID {
			return model.ErrForbidden
		}
		if existing.Status != model.StatusPending {
			return fmt.Errorf("%w: booking is %s", model.ErrInvalidTransition, existing.Status)
		}
		draft.ID = existing.ID
		if draft.Email == "" {
			draft.Email = existing.Email
		}
		if err := bookings.ReplaceDraft(ctx, draft); err != nil {
			if errors.Is(err, repository.ErrStaleWrite) {
				return model.ErrInvalidTransition
			}
			return err
		}
		existing.Email, existing.Mobile, existing.Window = draft.Email, draft.Mobile, draft.Window
		existing.Lines, existing.TotalGuests = draft.Lines, draft.TotalGuests
		existing.Subtotal, existing.Tax, existing.GrandTotal = draft.Subtotal, draft.Tax, draft.GrandTotal
		existing.UpdatedAt = draft.UpdatedAt
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Confirm marks the user's pending booking confirmed and paid. In the
// same transaction the booking's units are checked against confirmed
// bookings and other users' holds, and the user's cart is deleted so
// its hold turns into the booking's commitment.
func (s *BookingService) Confirm(ctx context.Context, userID, bookingID uint64, paymentRef string) (*model.Booking, error) {
	paymentRef = strings.TrimSpace(paymentRef)
	if paymentRef == "" {
		return nil, fmt.Errorf("%w: payment reference is required", model.ErrInvalidInput)
	}
	unlock, err := s.opts.Locker.Lock(ctx, userKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.opts.Now()
	var out *model.Booking
	err = repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		bookings := repository.NewBookingRepo(tx)
		if err := bookings.Lock(ctx, bookingID); err != nil {
			return err
		}
		b, err := bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return model.ErrForbidden
		}
		switch b.Status {
		case model.StatusCancelled:
			return model.ErrAlreadyCancelled
		case model.StatusConfirmed:
			return fmt.Errorf("%w: booking is already confirmed", model.ErrInvalidTransition)
		}
		if err := checkCapacity(ctx, tx, model.UnitsByRoomType(b.Lines), b.Window,
			inventory.HoldScope{Now: now, ExcludeUserID: userID}); err != nil {
			return err
		}
		b.Status = model.StatusConfirmed
		b.PaymentStatus = model.PaymentPaid
		b.PaymentRef = &paymentRef
		if err := bookings.UpdateState(ctx, b); err != nil {
			return err
		}
		if _, err := repository.NewCartRepo(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.opts.Logger.Info("booking confirmed", zap.Uint64("booking_id", out.ID), zap.Uint64("user_id", userID))
	s.notifier.Notify(queue.NewBookingEvent(queue.EventBookingConfirmed, out, now))
	return out, nil
}

// Cancel cancels a booking. A paid booking that was not refunded yet is
// flagged refund pending. Customers may only cancel their own bookings.
func (s *BookingService) Cancel(ctx context.Context, bookingID uint64, actor Actor) (*model.Booking, error) {
	var out *model.Booking
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		bookings := repository.NewBookingRepo(tx)
		if err := bookings.Lock(ctx, bookingID); err != nil {
			return err
		}
		b, err := bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !actor.Admin && b.UserID != actor.UserID {
			return model.ErrForbidden
		}
		if b.Status == model.StatusCancelled {
			return model.ErrAlreadyCancelled
		}
		b.Status = model.StatusCancelled
		if b.Paid() && !b.IsRefunded {
			b.RefundPending = true
		}
		if err := bookings.UpdateState(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.opts.Logger.Info("booking cancelled", zap.Uint64("booking_id", out.ID),
		zap.Bool("by_admin", actor.Admin), zap.Bool("refund_pending", out.RefundPending))
	s.notifier.Notify(queue.NewBookingEvent(queue.EventBookingCancelled, out, s.opts.Now()))
	return out, nil
}

// PrepareRefund checks that a refund may be requested for the booking
// and returns it. An already refunded booking is reported before a
// booking that has nothing pending.
func (s *BookingService) PrepareRefund(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	b, err := repository.NewBookingRepo(s.db).GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.IsRefunded {
		return nil, model.ErrAlreadyRefunded
	}
	if !b.RefundPending {
		return nil, model.ErrNoRefundPending
	}
	if b.PaymentRef == nil || *b.PaymentRef == "" {
		return nil, fmt.Errorf("%w: booking has no payment reference", model.ErrNoRefundPending)
	}
	return b, nil
}

// CompleteRefund records refundID on the booking. When two refunds race
// only the first is recorded; the second gets model.ErrAlreadyRefunded.
func (s *BookingService) CompleteRefund(ctx context.Context, bookingID uint64, refundID string) (*model.Booking, error) {
	bookings := repository.NewBookingRepo(s.db)
	if err := bookings.CompleteRefund(ctx, bookingID, refundID); err != nil {
		if !errors.Is(err, repository.ErrStaleWrite) {
			return nil, err
		}
		b, gerr := bookings.GetByID(ctx, bookingID)
		if gerr != nil {
			return nil, gerr
		}
		if b.IsRefunded {
			return nil, model.ErrAlreadyRefunded
		}
		return nil, model.ErrNoRefundPending
	}
	b, err := bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.opts.Logger.Info("booking refunded", zap.Uint64("booking_id", b.ID), zap.String("refund_id", refundID))
	s.notifier.Notify(queue.NewBookingEvent(queue.EventBookingRefunded, b, s.opts.Now()))
	return b, nil
}

// Refund runs the whole refund: guard, provider refund, then record.
func (s *BookingService) Refund(ctx context.Context, bookingID uint64, gw payment.Gateway) (*model.Booking, error) {
	b, err := s.PrepareRefund(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	refundID, err := gw.Refund(ctx, *b.PaymentRef)
	if err != nil {
		return nil, fmt.Errorf("refund booking %d: %w", bookingID, err)
	}
	return s.CompleteRefund(ctx, bookingID, refundID)
}

// SetPaymentStatus lets an admin mark a booking paid or unpaid. Marking
// it unpaid clears the payment reference. Marking a cancelled booking
// paid does not queue a refund; only Cancel does that.
func (s *BookingService) SetPaymentStatus(ctx context.Context, bookingID uint64, status string) (*model.Booking, error) {
	if status != model.PaymentPaid && status != model.PaymentUnpaid {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidPaymentStatus, status)
	}
	var out *model.Booking
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		bookings := repository.NewBookingRepo(tx)
		if err := bookings.Lock(ctx, bookingID); err != nil {
			return err
		}
		b, err := bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.IsRefunded {
			return fmt.Errorf("%w: booking was refunded", model.ErrInvalidTransition)
		}
		b.PaymentStatus = status
		if status == model.PaymentUnpaid {
			b.PaymentRef = nil
		}
		if err := bookings.UpdateState(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a booking visible to actor.
func (s *BookingService) Get(ctx context.Context, bookingID uint64, actor Actor) (*model.Booking, error) {
	b, err := repository.NewBookingRepo(s.db).GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && b.UserID != actor.UserID {
		return nil, model.ErrForbidden
	}
	return b, nil
}

// ListMine returns the user's bookings, newest first.
func (s *BookingService) ListMine(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return repository.NewBookingRepo(s.db).ListByUser(ctx, userID)
}

// ListAll returns one page of all bookings matching f.
func (s *BookingService) ListAll(ctx context.Context, f model.BookingFilter) (model.BookingPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	return repository.NewBookingRepo(s.db).List(ctx, f)
}

// Delete removes a booking for good.
func (s *BookingService) Delete(ctx context.Context, bookingID uint64) error {
	return repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		return repository.NewBookingRepo(tx).Delete(ctx, bookingID)
	})
}
