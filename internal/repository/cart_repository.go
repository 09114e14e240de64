package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// CartRepo manages the per-user cart and its lines.
type CartRepo struct {
	q DBTX
}

// NewCartRepo returns a CartRepo bound to q.
func NewCartRepo(q DBTX) *CartRepo { return &CartRepo{q: q} }

const cartColumns = `id, user_id, check_in, check_out, guests, total_guests, mobile,
	subtotal, tax, grand_total, expires_at, created_at, updated_at`

// GetByUser returns the user's cart with its lines, or
// model.ErrCartNotFound.
func (r *CartRepo) GetByUser(ctx context.Context, userID uint64) (*model.Cart, error) {
	var c model.Cart
	var expires sql.NullTime
	err := r.q.QueryRowContext(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id = ?`, userID).Scan(
		&c.ID, &c.UserID, &c.Window.CheckIn, &c.Window.CheckOut, &c.Guests, &c.TotalGuests, &c.Mobile,
		&c.Subtotal, &c.Tax, &c.GrandTotal, &expires, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	c.ExpiresAt = ptrTime(expires)
	lines, err := loadLines(ctx, r.q, cartLines, []uint64{c.ID})
	if err != nil {
		return nil, err
	}
	c.Lines = lines[c.ID]
	if c.Lines == nil {
		c.Lines = []model.ReservationLine{}
	}
	return &c, nil
}

// Save creates or replaces the user's cart. Lines are rewritten in full.
// Call it inside a transaction so header and lines change together.
func (r *CartRepo) Save(ctx context.Context, c *model.Cart) error {
	now := ts(time.Now())
	var id uint64
	err := r.q.QueryRowContext(ctx, `SELECT id FROM carts WHERE user_id = ?`, c.UserID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		const ins = `INSERT INTO carts (user_id, check_in, check_out, guests, total_guests, mobile,
			subtotal, tax, grand_total, expires_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		res, err := r.q.ExecContext(ctx, ins, c.UserID, ts(c.Window.CheckIn), ts(c.Window.CheckOut), c.Guests,
			c.TotalGuests, c.Mobile, c.Subtotal, c.Tax, c.GrandTotal, nullTime(c.ExpiresAt), now, now)
		if err != nil {
			return err
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		c.ID = uint64(newID)
		c.CreatedAt = now
	case err != nil:
		return err
	default:
		const upd = `UPDATE carts SET check_in = ?, check_out = ?, guests = ?, total_guests = ?, mobile = ?,
			subtotal = ?, tax = ?, grand_total = ?, expires_at = ?, updated_at = ? WHERE id = ?`
		if _, err := r.q.ExecContext(ctx, upd, ts(c.Window.CheckIn), ts(c.Window.CheckOut), c.Guests,
			c.TotalGuests, c.Mobile, c.Subtotal, c.Tax, c.GrandTotal, nullTime(c.ExpiresAt), now, id); err != nil {
			return err
		}
		if err := deleteLines(ctx, r.q, cartLines, id); err != nil {
			return err
		}
		c.ID = id
	}
	c.UpdatedAt = now
	return insertLines(ctx, r.q, cartLines, c.ID, c.Lines)
}

// DeleteByUser removes the user's cart and reports whether one existed.
func (r *CartRepo) DeleteByUser(ctx context.Context, userID uint64) (bool, error) {
	if _, err := r.q.ExecContext(ctx,
		`DELETE FROM cart_lines WHERE cart_id IN (SELECT id FROM carts WHERE user_id = ?)`, userID); err != nil {
		return false, err
	}
	res, err := r.q.ExecContext(ctx, `DELETE FROM carts WHERE user_id = ?`, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// PurgeExpired deletes every cart whose hold expired at or before now
// and returns how many carts were removed.
func (r *CartRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if _, err := r.q.ExecContext(ctx,
		`DELETE FROM cart_lines WHERE cart_id IN (SELECT id FROM carts WHERE expires_at IS NOT NULL AND expires_at <= ?)`,
		ts(now)); err != nil {
		return 0, err
	}
	res, err := r.q.ExecContext(ctx, `DELETE FROM carts WHERE expires_at IS NOT NULL AND expires_at <= ?`, ts(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
