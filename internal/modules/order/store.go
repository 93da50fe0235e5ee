// README: Read-only order store backed by PostgreSQL.
package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"galley/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Get loads an order together with its items in display order.
func (s *Store) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, tenant_id, status, created_at, confirmed_at, preparing_at
		FROM orders
		WHERE id = $1`, string(id),
	)

	var o Order
	var confirmedAt, preparingAt sql.NullTime
	err := row.Scan(&o.ID, &o.TenantID, &o.Status, &o.CreatedAt, &confirmedAt, &preparingAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", id, err)
	}
	if !o.Status.Valid() {
		return nil, fmt.Errorf("order %s: %w %q", id, ErrInvalidStatus, o.Status)
	}
	o.ConfirmedAt = toTimePtr(confirmedAt)
	o.PreparingAt = toTimePtr(preparingAt)

	items, err := s.listItems(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("load items of order %s: %w", id, err)
	}
	o.Items = items
	return &o, nil
}

func (s *Store) listItems(ctx context.Context, orderID types.ID) ([]Item, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, status, station, preparing_at, ready_at, menu_item_id, name
		FROM order_items
		WHERE order_id = $1
		ORDER BY position, id`, string(orderID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var station, menuItemID sql.NullString
		var preparingAt, readyAt sql.NullTime
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Status, &station, &preparingAt, &readyAt, &menuItemID, &it.Names); err != nil {
			return nil, err
		}
		if !it.Status.Valid() {
			return nil, fmt.Errorf("item %s: %w %q", it.ID, ErrInvalidStatus, it.Status)
		}
		if station.Valid {
			st := types.Station(station.String)
			it.Station = &st
		}
		if menuItemID.Valid {
			m := types.ID(menuItemID.String)
			it.MenuItemID = &m
		}
		it.PreparingAt = toTimePtr(preparingAt)
		it.ReadyAt = toTimePtr(readyAt)
		items = append(items, it)
	}
	return items, rows.Err()
}

// CountInFlightItems counts the tenant's pending or preparing items on live
// orders other than excludeOrderID. The table is mutated concurrently by the
// order workflow, so the count is a point-in-time approximation.
func (s *Store) CountInFlightItems(ctx context.Context, tenantID, excludeOrderID types.ID) (int, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE o.tenant_id = $1
		  AND o.id <> $2
		  AND o.status IN ('pending','confirmed','preparing')
		  AND i.status IN ('pending','preparing')`,
		string(tenantID), string(excludeOrderID),
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
