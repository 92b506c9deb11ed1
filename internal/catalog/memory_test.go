package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agronova-labs/agronova/internal/catalog"
)

var ctx = context.Background()

func sample(id string, created time.Time) *catalog.Product {
	return &catalog.Product{
		ID:         id,
		Name:       "Highland Arabica Coffee",
		QuantityKg: 120,
		PricePerKg: 28,
		Owner:      "F-001",
		Status:     catalog.StatusListed,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestCreateAndGet(t *testing.T) {
	store := catalog.NewMemoryStore()
	if err := store.Create(ctx, sample("AGR-1001", time.Now())); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "AGR-1001")
	if err != nil {
		t.Fatal(err)
	}
	if got.Owner != "F-001" || got.Status != catalog.StatusListed {
		t.Errorf("unexpected product: %+v", got)
	}
}

func TestCreate_duplicateID(t *testing.T) {
	store := catalog.NewMemoryStore()
	if err := store.Create(ctx, sample("AGR-1001", time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := store.Create(ctx, sample("AGR-1001", time.Now())); !errors.Is(err, catalog.ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestGet_unknownID(t *testing.T) {
	store := catalog.NewMemoryStore()
	if _, err := store.Get(ctx, "AGR-9999"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_returnsCopy(t *testing.T) {
	store := catalog.NewMemoryStore()
	if err := store.Create(ctx, sample("AGR-1001", time.Now())); err != nil {
		t.Fatal(err)
	}

	first, _ := store.Get(ctx, "AGR-1001")
	first.Owner = "mutated"

	second, _ := store.Get(ctx, "AGR-1001")
	if second.Owner != "F-001" {
		t.Errorf("stored product was mutated through a returned copy: owner=%s", second.Owner)
	}
}

func TestUpdate_unknownID(t *testing.T) {
	store := catalog.NewMemoryStore()
	err := store.Update(ctx, sample("AGR-1001", time.Now()))
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestList_filtersByStatusAndSortsByCreation(t *testing.T) {
	store := catalog.NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	newer := sample("AGR-2001", base.Add(time.Hour))
	older := sample("AGR-1001", base)
	soldOut := sample("AGR-3001", base.Add(2*time.Hour))
	soldOut.Status = catalog.StatusSold

	for _, p := range []*catalog.Product{newer, older, soldOut} {
		if err := store.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	listed, err := store.List(ctx, catalog.StatusListed)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 listed products, got %d", len(listed))
	}
	if listed[0].ID != "AGR-1001" || listed[1].ID != "AGR-2001" {
		t.Errorf("expected creation order, got %s then %s", listed[0].ID, listed[1].ID)
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 products for empty status filter, got %d", len(all))
	}
}

func TestClear(t *testing.T) {
	store := catalog.NewMemoryStore()
	if err := store.Create(ctx, sample("AGR-1001", time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if all, _ := store.List(ctx, ""); len(all) != 0 {
		t.Errorf("expected empty store after clear, got %d products", len(all))
	}
}
