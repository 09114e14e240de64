package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/repository"
)

// RoomTypeInput describes a room type to add. Amounts are in paise.
type RoomTypeInput struct {
	Name        string           `json:"name" validate:"required,max=191"`
	Description string           `json:"description"`
	Price       model.Money      `json:"price" validate:"gte=0"`
	Capacity    int              `json:"capacity" validate:"gte=1"`
	TotalUnits  int              `json:"total_units" validate:"gte=1"`
	LunchPrice  model.Money      `json:"lunch_price" validate:"gte=0"`
	DinnerPrice model.Money      `json:"dinner_price" validate:"gte=0"`
	Amenities   *model.Amenities `json:"amenities"`
	Images      []string         `json:"images" validate:"max=5,dive,required"`
}

// RoomTypePatch changes the descriptive fields and prices of a room
// type. Nil fields are left alone. Unit counts change through
// SetTotalUnits and RemoveUnits.
type RoomTypePatch struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=191"`
	Description *string          `json:"description"`
	Price       *model.Money     `json:"price" validate:"omitempty,gte=0"`
	Capacity    *int             `json:"capacity" validate:"omitempty,gte=1"`
	LunchPrice  *model.Money     `json:"lunch_price" validate:"omitempty,gte=0"`
	DinnerPrice *model.Money     `json:"dinner_price" validate:"omitempty,gte=0"`
	Amenities   *model.Amenities `json:"amenities"`
	Images      *[]string        `json:"images" validate:"omitempty,max=5"`
}

// RoomService administers room types and answers availability queries.
type RoomService struct {
	db   *sql.DB
	opts Options
}

// NewRoomService returns a RoomService over db.
func NewRoomService(db *sql.DB, opts Options) *RoomService {
	return &RoomService{db: db, opts: opts.withDefaults()}
}

// normaliseName trims a room type name and brings it into Unicode NFC so
// the same name typed on different keyboards merges into one type.
func normaliseName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func validateRoomType(rt *model.RoomType) error {
	switch {
	case rt.Name == "":
		return fmt.Errorf("%w: name is required", model.ErrInvalidInput)
	case rt.Price < 0 || rt.LunchPrice < 0 || rt.DinnerPrice < 0:
		return fmt.Errorf("%w: prices must not be negative", model.ErrInvalidInput)
	case rt.Capacity < 1:
		return fmt.Errorf("%w: capacity must be at least 1", model.ErrInvalidInput)
	case rt.TotalUnits < 0:
		return fmt.Errorf("%w: total units must not be negative", model.ErrInvalidInput)
	case len(rt.Images) > model.MaxImages:
		return fmt.Errorf("%w: at most %d images", model.ErrInvalidInput, model.MaxImages)
	}
	return nil
}

// Create adds a room type. When a type with the same name exists its
// units are increased by in.TotalUnits, non-zero meal prices and a
// non-empty description replace the old ones, given amenities replace
// the old flags and images are appended. The boolean reports whether a
// new type was created.
func (s *RoomService) Create(ctx context.Context, in RoomTypeInput) (*model.RoomType, bool, error) {
	if in.TotalUnits < 1 {
		return nil, false, fmt.Errorf("%w: total units must be at least 1", model.ErrInvalidInput)
	}
	name := normaliseName(in.Name)
	var out *model.RoomType
	created := false
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		rooms := repository.NewRoomTypeRepo(tx)
		existing, err := rooms.GetByName(ctx, name)
		if errors.Is(err, model.ErrRoomNotFound) {
			rt := &model.RoomType{
				Name:        name,
				Description: strings.TrimSpace(in.Description),
				Price:       in.Price,
				Capacity:    in.Capacity,
				TotalUnits:  in.TotalUnits,
				LunchPrice:  in.LunchPrice,
				DinnerPrice: in.DinnerPrice,
				Amenities:   model.DefaultAmenities(),
				Images:      in.Images,
			}
			if in.Amenities != nil {
				rt.Amenities = *in.Amenities
			}
			if rt.Images == nil {
				rt.Images = []string{}
			}
			if err := validateRoomType(rt); err != nil {
				return err
			}
			if err := rooms.Create(ctx, rt); err != nil {
				return err
			}
			out, created = rt, true
			return nil
		}
		if err != nil {
			return err
		}

		if err := rooms.Lock(ctx, existing.ID); err != nil {
			return err
		}
		existing.TotalUnits += in.TotalUnits
		if d := strings.TrimSpace(in.Description); d != "" {
			existing.Description = d
		}
		if in.LunchPrice > 0 {
			existing.LunchPrice = in.LunchPrice
		}
		if in.DinnerPrice > 0 {
			existing.DinnerPrice = in.DinnerPrice
		}
		if in.Amenities != nil {
			existing.Amenities = *in.Amenities
		}
		existing.Images = append(existing.Images, in.Images...)
		if err := validateRoomType(existing); err != nil {
			return err
		}
		if err := rooms.Update(ctx, existing); err != nil {
			return err
		}
		out = existing
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	s.opts.Logger.Info("room type saved", zap.Uint64("room_type_id", out.ID),
		zap.String("name", out.Name), zap.Bool("created", created), zap.Int("total_units", out.TotalUnits))
	return out, created, nil
}

// Update applies p to the room type.
func (s *RoomService) Update(ctx context.Context, id uint64, p RoomTypePatch) (*model.RoomType, error) {
	var out *model.RoomType
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		rooms := repository.NewRoomTypeRepo(tx)
		if err := rooms.Lock(ctx, id); err != nil {
			return err
		}
		rt, err := rooms.GetRoomType(ctx, id)
		if err != nil {
			return err
		}
		if p.Name != nil {
			name := normaliseName(*p.Name)
			if name != rt.Name {
				other, err := rooms.GetByName(ctx, name)
				if err == nil && other.ID != rt.ID {
					return fmt.Errorf("%w: room type %q already exists", model.ErrConflict, name)
				}
				if err != nil && !errors.Is(err, model.ErrRoomNotFound) {
					return err
				}
			}
			rt.Name = name
		}
		if p.Description != nil {
			rt.Description = strings.TrimSpace(*p.Description)
		}
		if p.Price != nil {
			rt.Price = *p.Price
		}
		if p.Capacity != nil {
			rt.Capacity = *p.Capacity
		}
		if p.LunchPrice != nil {
			rt.LunchPrice = *p.LunchPrice
		}
		if p.DinnerPrice != nil {
			rt.DinnerPrice = *p.DinnerPrice
		}
		if p.Amenities != nil {
			rt.Amenities = *p.Amenities
		}
		if p.Images != nil {
			rt.Images = *p.Images
		}
		if err := validateRoomType(rt); err != nil {
			return err
		}
		if err := rooms.Update(ctx, rt); err != nil {
			return err
		}
		out = rt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetTotalUnits sets the unit count of a room type. The new total may
// not drop below the units still committed to confirmed bookings that
// have not checked out plus the units held by live carts.
func (s *RoomService) SetTotalUnits(ctx context.Context, id uint64, total int) (*model.RoomType, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: total units must not be negative", model.ErrInvalidInput)
	}
	return s.setUnits(ctx, id, func(int) int { return total })
}

// RemoveUnits takes count units out of service under the same rule as
// SetTotalUnits.
func (s *RoomService) RemoveUnits(ctx context.Context, id uint64, count int) (*model.RoomType, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: count must be at least 1", model.ErrInvalidInput)
	}
	return s.setUnits(ctx, id, func(cur int) int { return cur - count })
}

func (s *RoomService) setUnits(ctx context.Context, id uint64, next func(cur int) int) (*model.RoomType, error) {
	now := s.opts.Now()
	var out *model.RoomType
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		rooms := repository.NewRoomTypeRepo(tx)
		if err := rooms.Lock(ctx, id); err != nil {
			return err
		}
		rt, err := rooms.GetRoomType(ctx, id)
		if err != nil {
			return err
		}
		total := next(rt.TotalUnits)
		if total < 0 {
			return fmt.Errorf("%w: only %d units exist", model.ErrInvalidInput, rt.TotalUnits)
		}
		floor, err := inventory.New(rooms, repository.NewUsageRepo(tx)).Floor(ctx, id, now)
		if err != nil {
			return err
		}
		if used := floor.Committed + floor.Held; total < used {
			return fmt.Errorf("%w: %d units are booked or held, cannot go down to %d",
				model.ErrInsufficientCapacity, used, total)
		}
		rt.TotalUnits = total
		if err := rooms.Update(ctx, rt); err != nil {
			return err
		}
		out = rt
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.opts.Logger.Info("room units changed", zap.Uint64("room_type_id", id), zap.Int("total_units", out.TotalUnits))
	return out, nil
}

// Availability lists room types annotated for w.
func (s *RoomService) Availability(ctx context.Context, w model.Window, f inventory.ListFilter) ([]model.Availability, error) {
	return s.aggregator().List(ctx, w, inventory.HoldScope{Now: s.opts.Now()}, f)
}

// AvailabilityOf returns one room type annotated for w.
func (s *RoomService) AvailabilityOf(ctx context.Context, id uint64, w model.Window) (*model.Availability, error) {
	return s.aggregator().Get(ctx, id, w, inventory.HoldScope{Now: s.opts.Now()})
}

// Catalog returns every room type without usage figures.
func (s *RoomService) Catalog(ctx context.Context) ([]model.RoomType, error) {
	return repository.NewRoomTypeRepo(s.db).ListRoomTypes(ctx)
}

func (s *RoomService) aggregator() *inventory.Aggregator {
	return inventory.New(repository.NewRoomTypeRepo(s.db), repository.NewUsageRepo(s.db))
}
