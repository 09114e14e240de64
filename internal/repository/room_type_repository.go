package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// RoomTypeRepo manages persistence for room types. It implements the
// inventory.Catalog interface.
type RoomTypeRepo struct {
	q DBTX
}

// NewRoomTypeRepo returns a RoomTypeRepo bound to q, which may be a
// *sql.DB or a *sql.Tx.
func NewRoomTypeRepo(q DBTX) *RoomTypeRepo { return &RoomTypeRepo{q: q} }

const roomTypeColumns = `id, name, description, price, capacity, total_units, lunch_price, dinner_price,
	wifi, breakfast, ac, tv, images, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoomType(s rowScanner) (*model.RoomType, error) {
	var rt model.RoomType
	var images string
	if err := s.Scan(&rt.ID, &rt.Name, &rt.Description, &rt.Price, &rt.Capacity, &rt.TotalUnits,
		&rt.LunchPrice, &rt.DinnerPrice,
		&rt.Amenities.Wifi, &rt.Amenities.Breakfast, &rt.Amenities.AC, &rt.Amenities.TV,
		&images, &rt.Version, &rt.CreatedAt, &rt.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(images), &rt.Images); err != nil {
		return nil, err
	}
	if rt.Images == nil {
		rt.Images = []string{}
	}
	return &rt, nil
}

func encodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	b, err := json.Marshal(images)
	return string(b), err
}

// Create inserts rt and fills in its ID and timestamps.
func (r *RoomTypeRepo) Create(ctx context.Context, rt *model.RoomType) error {
	images, err := encodeImages(rt.Images)
	if err != nil {
		return err
	}
	now := ts(time.Now())
	const q = `INSERT INTO room_types (name, description, price, capacity, total_units, lunch_price, dinner_price,
		wifi, breakfast, ac, tv, images, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`
	res, err := r.q.ExecContext(ctx, q, rt.Name, rt.Description, rt.Price, rt.Capacity, rt.TotalUnits,
		rt.LunchPrice, rt.DinnerPrice, rt.Amenities.Wifi, rt.Amenities.Breakfast, rt.Amenities.AC, rt.Amenities.TV,
		images, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	rt.Version = 0
	rt.CreatedAt = now
	rt.UpdatedAt = now
	return nil
}

// GetRoomType returns the room type with id or model.ErrRoomNotFound.
func (r *RoomTypeRepo) GetRoomType(ctx context.Context, id uint64) (*model.RoomType, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+roomTypeColumns+` FROM room_types WHERE id = ?`, id)
	rt, err := scanRoomType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRoomNotFound
	}
	return rt, err
}

// GetByName looks a room type up by its unique name.
func (r *RoomTypeRepo) GetByName(ctx context.Context, name string) (*model.RoomType, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+roomTypeColumns+` FROM room_types WHERE name = ?`, name)
	rt, err := scanRoomType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRoomNotFound
	}
	return rt, err
}

// ListRoomTypes returns every room type ordered by ID.
func (r *RoomTypeRepo) ListRoomTypes(ctx context.Context) ([]model.RoomType, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+roomTypeColumns+` FROM room_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.RoomType{}
	for rows.Next() {
		rt, err := scanRoomType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rt)
	}
	return out, rows.Err()
}

// Update writes every mutable column of rt.
func (r *RoomTypeRepo) Update(ctx context.Context, rt *model.RoomType) error {
	images, err := encodeImages(rt.Images)
	if err != nil {
		return err
	}
	now := ts(time.Now())
	const q = `UPDATE room_types SET name = ?, description = ?, price = ?, capacity = ?, total_units = ?,
		lunch_price = ?, dinner_price = ?, wifi = ?, breakfast = ?, ac = ?, tv = ?, images = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.q.ExecContext(ctx, q, rt.Name, rt.Description, rt.Price, rt.Capacity, rt.TotalUnits,
		rt.LunchPrice, rt.DinnerPrice, rt.Amenities.Wifi, rt.Amenities.Breakfast, rt.Amenities.AC, rt.Amenities.TV,
		images, now, rt.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports zero rows when nothing changed; tell that apart
		// from a missing row.
		if _, gerr := r.GetRoomType(ctx, rt.ID); gerr != nil {
			return gerr
		}
	}
	rt.UpdatedAt = now
	return nil
}

// Lock bumps the version of a room type. Inside a transaction this
// takes the row's write lock, serialising every capacity check for the
// room type until commit.
func (r *RoomTypeRepo) Lock(ctx context.Context, id uint64) error {
	res, err := r.q.ExecContext(ctx, `UPDATE room_types SET version = version + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrRoomNotFound
	}
	return nil
}
