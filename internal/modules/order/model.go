// README: Order aggregate and the order/item status vocabularies.
package order

import (
	"errors"
	"sort"
	"time"

	"galley/internal/types"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid status")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no ETA is computed for an order in this status.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusDelivered || s == StatusCancelled
}

// Queued reports whether the order is still waiting for a kitchen slot.
func (s Status) Queued() bool {
	return s == StatusPending || s == StatusConfirmed
}

type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemServed    ItemStatus = "served"
	ItemCancelled ItemStatus = "cancelled"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemPending, ItemPreparing, ItemReady, ItemServed, ItemCancelled:
		return true
	}
	return false
}

// Done reports whether the item no longer contributes remaining time.
func (s ItemStatus) Done() bool {
	return s == ItemReady || s == ItemServed
}

// InFlight reports whether the item still occupies a station.
func (s ItemStatus) InFlight() bool {
	return s == ItemPending || s == ItemPreparing
}

type Order struct {
	ID          types.ID
	TenantID    types.ID
	Status      Status
	CreatedAt   time.Time
	ConfirmedAt *time.Time
	PreparingAt *time.Time
	Items       []Item
}

type Item struct {
	ID          types.ID
	OrderID     types.ID
	Status      ItemStatus
	Station     *types.Station
	PreparingAt *time.Time
	ReadyAt     *time.Time
	MenuItemID  *types.ID
	// Names holds the display name per locale, e.g. {"en": "Latte", "id": "Kopi Susu"}.
	Names map[string]string
}

// DisplayName picks the name for locale, then fallback, then the
// alphabetically first locale so the result is stable.
func (i Item) DisplayName(locale, fallback string) string {
	if n, ok := i.Names[locale]; ok && n != "" {
		return n
	}
	if n, ok := i.Names[fallback]; ok && n != "" {
		return n
	}
	keys := make([]string, 0, len(i.Names))
	for k, v := range i.Names {
		if v != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return i.Names[keys[0]]
}
