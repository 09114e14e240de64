package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// BookingRepo manages bookings and their frozen lines.
type BookingRepo struct {
	q DBTX
}

// NewBookingRepo returns a BookingRepo bound to q.
func NewBookingRepo(q DBTX) *BookingRepo { return &BookingRepo{q: q} }

const bookingColumns = `b.id, b.user_id, b.email, b.mobile, b.check_in, b.check_out, b.total_guests,
	b.subtotal, b.tax, b.grand_total, b.status, b.payment_status, b.payment_reference, b.refund_id,
	b.refund_pending, b.is_refunded, b.created_at, b.updated_at`

func scanBooking(s rowScanner) (*model.Booking, error) {
	var b model.Booking
	var ref, refund sql.NullString
	if err := s.Scan(&b.ID, &b.UserID, &b.Email, &b.Mobile, &b.Window.CheckIn, &b.Window.CheckOut, &b.TotalGuests,
		&b.Subtotal, &b.Tax, &b.GrandTotal, &b.Status, &b.PaymentStatus, &ref, &refund,
		&b.RefundPending, &b.IsRefunded, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.PaymentRef = ptrString(ref)
	b.RefundID = ptrString(refund)
	return &b, nil
}

// Create inserts b with its lines and fills in the ID and timestamps.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	now := ts(time.Now())
	const q = `INSERT INTO bookings (user_id, email, mobile, check_in, check_out, total_guests,
		subtotal, tax, grand_total, status, payment_status, payment_reference, refund_id,
		refund_pending, is_refunded, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`
	res, err := r.q.ExecContext(ctx, q, b.UserID, b.Email, b.Mobile, ts(b.Window.CheckIn), ts(b.Window.CheckOut),
		b.TotalGuests, b.Subtotal, b.Tax, b.GrandTotal, b.Status, b.PaymentStatus,
		nullString(b.PaymentRef), nullString(b.RefundID), b.RefundPending, b.IsRefunded, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.CreatedAt = now
	b.UpdatedAt = now
	return insertLines(ctx, r.q, bookingLines, b.ID, b.Lines)
}

// ReplaceDraft rewrites the contact details, window, totals and lines
// of a pending booking.
func (r *BookingRepo) ReplaceDraft(ctx context.Context, b *model.Booking) error {
	now := ts(time.Now())
	const q = `UPDATE bookings SET email = ?, mobile = ?, check_in = ?, check_out = ?, total_guests = ?,
		subtotal = ?, tax = ?, grand_total = ?, updated_at = ? WHERE id = ? AND status = ?`
	res, err := r.q.ExecContext(ctx, q, b.Email, b.Mobile, ts(b.Window.CheckIn), ts(b.Window.CheckOut),
		b.TotalGuests, b.Subtotal, b.Tax, b.GrandTotal, now, b.ID, model.StatusPending)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrStaleWrite
	}
	if err := deleteLines(ctx, r.q, bookingLines, b.ID); err != nil {
		return err
	}
	b.UpdatedAt = now
	return insertLines(ctx, r.q, bookingLines, b.ID, b.Lines)
}

// UpdateState writes the lifecycle columns of b: status, payment and
// refund fields.
func (r *BookingRepo) UpdateState(ctx context.Context, b *model.Booking) error {
	now := ts(time.Now())
	const q = `UPDATE bookings SET status = ?, payment_status = ?, payment_reference = ?, refund_id = ?,
		refund_pending = ?, is_refunded = ?, updated_at = ? WHERE id = ?`
	if _, err := r.q.ExecContext(ctx, q, b.Status, b.PaymentStatus, nullString(b.PaymentRef),
		nullString(b.RefundID), b.RefundPending, b.IsRefunded, now, b.ID); err != nil {
		return err
	}
	b.UpdatedAt = now
	return nil
}

// CompleteRefund marks a booking refunded if, and only if, a refund is
// still pending and none was recorded. It returns ErrStaleWrite when the
// guard no longer holds, which happens when two refunds race.
func (r *BookingRepo) CompleteRefund(ctx context.Context, id uint64, refundID string) error {
	const q = `UPDATE bookings SET is_refunded = ?, refund_pending = ?, refund_id = ?, payment_status = ?,
		updated_at = ?, version = version + 1
		WHERE id = ? AND is_refunded = ? AND refund_pending = ?`
	res, err := r.q.ExecContext(ctx, q, true, false, refundID, model.PaymentRefunded, ts(time.Now()), id, false, true)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleWrite
	}
	return nil
}

// Lock bumps the booking's version, taking its row lock for the rest of
// the transaction.
func (r *BookingRepo) Lock(ctx context.Context, id uint64) error {
	res, err := r.q.ExecContext(ctx, `UPDATE bookings SET version = version + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrBookingNotFound
	}
	return nil
}

// GetByID returns the booking with its lines, or model.ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	lines, err := loadLines(ctx, r.q, bookingLines, []uint64{b.ID})
	if err != nil {
		return nil, err
	}
	b.Lines = orEmpty(lines[b.ID])
	return b, nil
}

// ListByUser returns the user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.user_id = ?
		ORDER BY b.created_at DESC, b.id DESC`, userID)
}

// List returns one page of bookings matching f, newest first, along with
// the total number of matches.
func (r *BookingRepo) List(ctx context.Context, f model.BookingFilter) (model.BookingPage, error) {
	var where []string
	var args []any
	if f.Email != "" {
		where = append(where, "LOWER(b.email) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Email)+"%")
	}
	if f.Status != "" {
		where = append(where, "b.status = ?")
		args = append(args, f.Status)
	}
	if f.PaymentStatus != "" {
		where = append(where, "b.payment_status = ?")
		args = append(args, f.PaymentStatus)
	}
	if f.Guests > 0 {
		where = append(where, "b.total_guests = ?")
		args = append(args, f.Guests)
	}
	if f.Date != nil {
		// Stays in house on that day.
		where = append(where, "b.check_in <= ? AND b.check_out > ?")
		args = append(args, ts(*f.Date), ts(*f.Date))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	page := model.BookingPage{Page: f.Page, PerPage: f.PerPage}
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings b`+clause, args...).Scan(&page.Total); err != nil {
		return page, err
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings b` + clause +
		` ORDER BY b.created_at DESC, b.id DESC LIMIT ? OFFSET ?`
	bookings, err := r.query(ctx, query, append(args, f.PerPage, (f.Page-1)*f.PerPage)...)
	if err != nil {
		return page, err
	}
	page.Bookings = bookings
	return page, nil
}

// Delete removes a booking and its lines.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	if err := deleteLines(ctx, r.q, bookingLines, id); err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepo) query(ctx context.Context, query string, args ...any) ([]model.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out := []model.Booking{}
	var ids []uint64
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, *b)
		ids = append(ids, b.ID)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Rows must be closed before the next query: SQLite runs on a single
	// connection.
	lines, err := loadLines(ctx, r.q, bookingLines, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Lines = orEmpty(lines[out[i].ID])
	}
	return out, nil
}

func orEmpty(lines []model.ReservationLine) []model.ReservationLine {
	if lines == nil {
		return []model.ReservationLine{}
	}
	return lines
}
