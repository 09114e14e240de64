package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// lineTable names one of the two line tables and its parent column.
type lineTable struct {
	name   string
	parent string
}

var (
	cartLines    = lineTable{name: "cart_lines", parent: "cart_id"}
	bookingLines = lineTable{name: "booking_lines", parent: "booking_id"}
)

const lineColumns = `room_type_id, room_name, unit_price, capacity, count, guests_per_unit,
	lunch, dinner, nights, unit_guests, room_subtotal, meal_subtotal, line_total`

// insertLines writes lines for parentID in a single multi-row INSERT.
func insertLines(ctx context.Context, q DBTX, t lineTable, parentID uint64, lines []model.ReservationLine) error {
	if len(lines) == 0 {
		return nil
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s, position, %s) VALUES `, t.name, t.parent, lineColumns)
	args := make([]any, 0, len(lines)*15)
	for i, l := range lines {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args, parentID, i,
			l.RoomTypeID, l.Quote.RoomName, l.Quote.UnitPrice, l.Quote.Capacity, l.Count, l.GuestsPerUnit,
			l.Lunch, l.Dinner, l.Nights, l.UnitGuests, l.RoomSubtotal, l.MealSubtotal, l.LineTotal)
	}
	_, err := q.ExecContext(ctx, query, args...)
	return err
}

func deleteLines(ctx context.Context, q DBTX, t lineTable, parentID uint64) error {
	_, err := q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, t.name, t.parent), parentID)
	return err
}

// loadLines returns the lines of every parent in ids keyed by parent,
// each slice in insertion order.
func loadLines(ctx context.Context, q DBTX, t lineTable, ids []uint64) (map[uint64][]model.ReservationLine, error) {
	out := make(map[uint64][]model.ReservationLine, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s IN (%s) ORDER BY %s, position`,
		t.parent, lineColumns, t.name, t.parent, placeholders, t.parent)
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var parent uint64
		var l model.ReservationLine
		if err := rows.Scan(&parent,
			&l.RoomTypeID, &l.Quote.RoomName, &l.Quote.UnitPrice, &l.Quote.Capacity, &l.Count, &l.GuestsPerUnit,
			&l.Lunch, &l.Dinner, &l.Nights, &l.UnitGuests, &l.RoomSubtotal, &l.MealSubtotal, &l.LineTotal,
		); err != nil {
			return nil, err
		}
		out[parent] = append(out[parent], l)
	}
	return out, rows.Err()
}
