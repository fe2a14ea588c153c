package memories

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/yleoer/keepsake/pkg/logger"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := NewSQLiteStore(MemoryDSN, logger.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSeededTimeline(t *testing.T) {
	s := newTestStore(t)
	list, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != len(Seed) {
		t.Fatalf("Expected %d memories, got %d", len(Seed), len(list))
	}
	if list[0].Title != "Our First Meeting" || list[0].Color != "primary" {
		t.Errorf("Unexpected first memory %+v", list[0])
	}
	if list[2].Color != "accent" || list[3].Color != "primary" {
		t.Errorf("Unexpected seed colors %q, %q", list[2].Color, list[3].Color)
	}
}

func TestAddKeepsDateOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.Add(ctx, NewMemory{Title: " Picnic ", Date: "2022-05-01", Description: "Strawberries"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if m.ID == 0 || m.Title != "Picnic" {
		t.Errorf("Unexpected saved memory %+v", m)
	}
	if !slices.Contains(Colors, m.Color) {
		t.Errorf("Expected one of %v, got %q", Colors, m.Color)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != len(Seed)+1 || list[2].ID != m.ID {
		t.Errorf("Expected new memory at index 2, got %+v", list)
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	tests := []NewMemory{
		{Date: "2022-05-01", Description: "no title"},
		{Title: "No date", Description: "x"},
		{Title: "No description", Date: "2022-05-01"},
		{Title: "Bad date", Date: "05/01/2022", Description: "x"},
	}
	for _, m := range tests {
		if _, err := s.Add(context.Background(), m); !errors.Is(err, ErrInvalidMemory) {
			t.Errorf("Add(%+v): expected ErrInvalidMemory, got %v", m, err)
		}
	}
	list, _ := s.List(context.Background())
	if len(list) != len(Seed) {
		t.Errorf("Expected invalid memories to be dropped, got %d", len(list))
	}
}

func TestStoresAreIndependent(t *testing.T) {
	a := newTestStore(t)
	b := newTestStore(t)
	if _, err := a.Add(context.Background(), NewMemory{Title: "t", Date: "2023-01-01", Description: "d"}); err != nil {
		t.Fatal(err)
	}
	list, _ := b.List(context.Background())
	if len(list) != len(Seed) {
		t.Errorf("Expected a fresh store to hold only the seed, got %d", len(list))
	}
}
