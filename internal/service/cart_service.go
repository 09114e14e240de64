// Package service holds the reservation workflows: the per-user cart,
// the booking state machine and room administration. Each workflow that
// touches inventory runs as one database transaction.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/pricing"
	"github.com/iliyamo/hotel-reservation/internal/repository"
)

// CartLineInput is one requested room type in a cart save.
type CartLineInput struct {
	RoomTypeID uint64 `json:"room_type_id" validate:"required"`
	Count      int    `json:"count" validate:"gte=1"`
	Guests     int    `json:"guests" validate:"gte=0"`
	Lunch      bool   `json:"lunch"`
	Dinner     bool   `json:"dinner"`
}

// SaveCartInput is a full cart snapshot. An empty Rooms list clears the
// cart.
type SaveCartInput struct {
	CheckIn  string          `json:"check_in"`
	CheckOut string          `json:"check_out"`
	Guests   int             `json:"guests" validate:"gte=0"`
	Mobile   string          `json:"mobile" validate:"omitempty,max=32"`
	Rooms    []CartLineInput `json:"rooms" validate:"dive"`
}

// Options carries the collaborators shared by the services.
type Options struct {
	Locker  Locker
	Now     func() time.Time
	Logger  *zap.Logger
	HoldTTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.Locker == nil {
		o.Locker = NewLocalLocker()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// CartService maintains each user's single cart.
type CartService struct {
	db   *sql.DB
	opts Options
}

// NewCartService returns a CartService over db.
func NewCartService(db *sql.DB, opts Options) *CartService {
	return &CartService{db: db, opts: opts.withDefaults()}
}

func emptyCart(userID uint64) *model.Cart {
	return &model.Cart{UserID: userID, Lines: []model.ReservationLine{}}
}

// Save replaces the user's cart with in. Every room type is resolved and
// its price frozen into the line, totals are recomputed, and the cart is
// written only if the requested units fit next to everybody else's
// bookings and holds. An empty room list deletes the cart and returns an
// empty one.
func (s *CartService) Save(ctx context.Context, userID uint64, in SaveCartInput) (*model.Cart, error) {
	unlock, err := s.opts.Locker.Lock(ctx, userKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if len(in.Rooms) == 0 {
		if _, err := repository.NewCartRepo(s.db).DeleteByUser(ctx, userID); err != nil {
			return nil, err
		}
		return emptyCart(userID), nil
	}
	if strings.TrimSpace(in.CheckIn) == "" || strings.TrimSpace(in.CheckOut) == "" {
		return nil, fmt.Errorf("%w: check-in and check-out dates are required", model.ErrInvalidWindow)
	}
	now := s.opts.Now()
	w, err := inventory.ParseWindow(in.CheckIn, in.CheckOut, now)
	if err != nil {
		return nil, err
	}

	var saved *model.Cart
	err = repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		carts := repository.NewCartRepo(tx)
		if _, err := carts.PurgeExpired(ctx, now); err != nil {
			return err
		}

		lines, err := resolveLines(ctx, repository.NewRoomTypeRepo(tx), in.Rooms)
		if err != nil {
			return err
		}
		totals, err := pricing.Calculate(lines, pricing.Nights(w))
		if err != nil {
			return err
		}
		if err := checkCapacity(ctx, tx, model.UnitsByRoomType(totals.Lines), w,
			inventory.HoldScope{Now: now, ExcludeUserID: userID}); err != nil {
			return err
		}

		cart := &model.Cart{UserID: userID, Window: w, Guests: in.Guests, Mobile: in.Mobile}
		if prev, err := carts.GetByUser(ctx, userID); err == nil {
			if cart.Mobile == "" {
				cart.Mobile = prev.Mobile
			}
		} else if !errors.Is(err, model.ErrCartNotFound) {
			return err
		}
		cart.ApplyTotals(totals)
		if cart.Guests == 0 {
			cart.Guests = totals.TotalGuests
		}
		if s.opts.HoldTTL > 0 {
			exp := now.Add(s.opts.HoldTTL)
			cart.ExpiresAt = &exp
		}
		if err := carts.Save(ctx, cart); err != nil {
			return err
		}
		saved = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.opts.Logger.Debug("cart saved", zap.Uint64("user_id", userID),
		zap.Int("lines", len(saved.Lines)), zap.String("grand_total", saved.GrandTotal.String()))
	return saved, nil
}

// resolveLines freezes the current price, capacity and selected meal
// prices of each requested room type into a line.
func resolveLines(ctx context.Context, rooms *repository.RoomTypeRepo, in []CartLineInput) ([]model.ReservationLine, error) {
	lines := make([]model.ReservationLine, 0, len(in))
	for _, r := range in {
		rt, err := rooms.GetRoomType(ctx, r.RoomTypeID)
		if err != nil {
			return nil, fmt.Errorf("room type %d: %w", r.RoomTypeID, err)
		}
		if r.Count < 1 {
			return nil, fmt.Errorf("%w: count for %s must be at least 1", model.ErrInvalidInput, rt.Name)
		}
		if r.Guests < 0 || r.Guests > rt.Capacity {
			return nil, fmt.Errorf("%w: %s hosts at most %d guests per room", model.ErrInvalidInput, rt.Name, rt.Capacity)
		}
		l := model.ReservationLine{
			RoomTypeID:    rt.ID,
			Quote:         model.Quote{RoomName: rt.Name, UnitPrice: rt.Price, Capacity: rt.Capacity},
			Count:         r.Count,
			GuestsPerUnit: r.Guests,
		}
		if r.Lunch {
			l.Lunch = rt.LunchPrice
		}
		if r.Dinner {
			l.Dinner = rt.DinnerPrice
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// Get returns the user's cart. A missing or expired cart reads as an
// empty one.
func (s *CartService) Get(ctx context.Context, userID uint64) (*model.Cart, error) {
	cart, err := repository.NewCartRepo(s.db).GetByUser(ctx, userID)
	if errors.Is(err, model.ErrCartNotFound) {
		return emptyCart(userID), nil
	}
	if err != nil {
		return nil, err
	}
	if !cart.Live(s.opts.Now()) {
		return emptyCart(userID), nil
	}
	return cart, nil
}

// Clear deletes the user's cart, if any.
func (s *CartService) Clear(ctx context.Context, userID uint64) error {
	unlock, err := s.opts.Locker.Lock(ctx, userKey(userID))
	if err != nil {
		return err
	}
	defer unlock()
	_, err = repository.NewCartRepo(s.db).DeleteByUser(ctx, userID)
	return err
}

// RemoveLine drops every line for roomTypeID and re-prices the rest from
// their frozen quotes. Removing the last line deletes the cart.
func (s *CartService) RemoveLine(ctx context.Context, userID, roomTypeID uint64) (*model.Cart, error) {
	unlock, err := s.opts.Locker.Lock(ctx, userKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out *model.Cart
	err = repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		carts := repository.NewCartRepo(tx)
		cart, err := carts.GetByUser(ctx, userID)
		if err != nil {
			return err
		}
		if !cart.Live(s.opts.Now()) {
			return model.ErrCartNotFound
		}
		kept := make([]model.ReservationLine, 0, len(cart.Lines))
		for _, l := range cart.Lines {
			if l.RoomTypeID != roomTypeID {
				kept = append(kept, l)
			}
		}
		if len(kept) == 0 {
			if _, err := carts.DeleteByUser(ctx, userID); err != nil {
				return err
			}
			out = emptyCart(userID)
			return nil
		}
		totals, err := pricing.Calculate(kept, pricing.Nights(cart.Window))
		if err != nil {
			return err
		}
		cart.ApplyTotals(totals)
		if err := carts.Save(ctx, cart); err != nil {
			return err
		}
		out = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
