// README: Order model tests (status vocabularies, predicates, display names).
package order

import "testing"

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []Status{"", "archived", "READY"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
	for _, s := range []ItemStatus{ItemPending, ItemPreparing, ItemReady, ItemServed, ItemCancelled} {
		if !s.Valid() {
			t.Errorf("item %s should be valid", s)
		}
	}
	for _, s := range []ItemStatus{"", "voided", "Pending"} {
		if s.Valid() {
			t.Errorf("item %q should be invalid", s)
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	for _, s := range []Status{StatusReady, StatusDelivered, StatusCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusPreparing} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	if !StatusPending.Queued() || !StatusConfirmed.Queued() || StatusPreparing.Queued() {
		t.Error("only pending and confirmed orders are queued")
	}
	if !ItemReady.Done() || !ItemServed.Done() || ItemPreparing.Done() {
		t.Error("only ready and served items are done")
	}
	if !ItemPending.InFlight() || !ItemPreparing.InFlight() || ItemCancelled.InFlight() {
		t.Error("only pending and preparing items are in flight")
	}
}

func TestItemDisplayName(t *testing.T) {
	it := Item{Names: map[string]string{"id": "Kopi Susu", "en": "Latte", "fr": ""}}
	if got := it.DisplayName("id", "en"); got != "Kopi Susu" {
		t.Errorf("exact locale: got %q", got)
	}
	if got := it.DisplayName("fr", "en"); got != "Latte" {
		t.Errorf("fallback locale: got %q", got)
	}

	other := Item{Names: map[string]string{"th": "Cha", "ja": "Ocha"}}
	if got := other.DisplayName("en", "en"); got != "Ocha" {
		t.Errorf("first available locale: got %q", got)
	}
	if got := (Item{}).DisplayName("en", "en"); got != "" {
		t.Errorf("no names: got %q", got)
	}
}
