package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/repository"
)

// checkCapacity verifies inside tx that demand, units per room type,
// fits into what is left for w once confirmed bookings and the holds in
// scope are counted. Each room type is locked before it is counted, in
// ascending ID order, so concurrent checks cannot both pass on the last
// unit and cannot deadlock each other.
func checkCapacity(ctx context.Context, tx *sql.Tx, demand map[uint64]int, w model.Window, scope inventory.HoldScope) error {
	ids := make([]uint64, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rooms := repository.NewRoomTypeRepo(tx)
	agg := inventory.New(rooms, repository.NewUsageRepo(tx))
	for _, id := range ids {
		if err := rooms.Lock(ctx, id); err != nil {
			return err
		}
		rt, err := rooms.GetRoomType(ctx, id)
		if err != nil {
			return err
		}
		u, err := agg.Usage(ctx, id, w, scope)
		if err != nil {
			return err
		}
		free := inventory.Available(rt.TotalUnits, u, true)
		if demand[id] > free {
			return fmt.Errorf("%w: %s has %d of %d requested units free",
				model.ErrInsufficientCapacity, rt.Name, free, demand[id])
		}
	}
	return nil
}
