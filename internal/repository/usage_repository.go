package repository

import (
	"context"

	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/model"
)

// UsageRepo counts units consumed by confirmed bookings and live carts.
// It implements inventory.Counter with the half-open overlap predicate
// existing.check_in < window.check_out AND existing.check_out > window.check_in.
type UsageRepo struct {
	q DBTX
}

// NewUsageRepo returns a UsageRepo bound to q.
func NewUsageRepo(q DBTX) *UsageRepo { return &UsageRepo{q: q} }

// CommittedUnits implements inventory.Counter.
func (r *UsageRepo) CommittedUnits(ctx context.Context, roomTypeID uint64, w model.Window) (int, error) {
	const q = `SELECT COALESCE(SUM(bl.count), 0)
		FROM booking_lines bl
		JOIN bookings b ON b.id = bl.booking_id
		WHERE bl.room_type_id = ? AND b.status = ? AND b.check_in < ? AND b.check_out > ?`
	var n int
	err := r.q.QueryRowContext(ctx, q, roomTypeID, model.StatusConfirmed, ts(w.CheckOut), ts(w.CheckIn)).Scan(&n)
	return n, err
}

// HeldUnits implements inventory.Counter.
func (r *UsageRepo) HeldUnits(ctx context.Context, roomTypeID uint64, w model.Window, scope inventory.HoldScope) (int, error) {
	const q = `SELECT COALESCE(SUM(cl.count), 0)
		FROM cart_lines cl
		JOIN carts c ON c.id = cl.cart_id
		WHERE cl.room_type_id = ? AND c.check_in < ? AND c.check_out > ?
		  AND (c.expires_at IS NULL OR c.expires_at > ?)
		  AND c.user_id <> ?`
	var n int
	err := r.q.QueryRowContext(ctx, q, roomTypeID, ts(w.CheckOut), ts(w.CheckIn), ts(scope.Now), scope.ExcludeUserID).Scan(&n)
	return n, err
}
