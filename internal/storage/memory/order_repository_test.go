package memory_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/lessonshop/internal/domain"
	"github.com/vladislavdragonenkov/lessonshop/internal/storage/memory"
)

func newOrder(name string, createdAt time.Time) domain.Order {
	return domain.Order{
		Name:      name,
		Phone:     "07000000000",
		Email:     "buyer@example.com",
		Items:     []json.RawMessage{json.RawMessage(`"lesson-1"`)},
		CreatedAt: createdAt,
	}
}

func TestOrderRepository_CreateAssignsUniqueIDs(t *testing.T) {
	repo := memory.NewOrderRepository()
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		created, err := repo.Create(ctx, newOrder(fmt.Sprintf("buyer-%d", i), time.Time{}))
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if created.ID == "" {
			t.Fatal("expected generated id")
		}
		if created.CreatedAt.IsZero() {
			t.Fatal("expected server-assigned createdAt")
		}
		if _, dup := seen[created.ID]; dup {
			t.Fatalf("duplicate id %s", created.ID)
		}
		seen[created.ID] = struct{}{}
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 100 {
		t.Fatalf("expected 100 orders, got %d", count)
	}
}

func TestOrderRepository_ListRecentNewestFirst(t *testing.T) {
	repo := memory.NewOrderRepository()
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 60; i++ {
		if _, err := repo.Create(ctx, newOrder(fmt.Sprintf("buyer-%d", i), base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	orders, err := repo.ListRecent(ctx, domain.MaxRecentOrders)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != domain.MaxRecentOrders {
		t.Fatalf("expected %d orders, got %d", domain.MaxRecentOrders, len(orders))
	}
	if orders[0].Name != "buyer-59" {
		t.Fatalf("expected newest order first, got %s", orders[0].Name)
	}
	for i := 1; i < len(orders); i++ {
		if orders[i].CreatedAt.After(orders[i-1].CreatedAt) {
			t.Fatalf("orders are not sorted newest first at %d", i)
		}
	}
}

func TestOrderRepository_ListRecentSameTimestampKeepsInsertionOrderReversed(t *testing.T) {
	repo := memory.NewOrderRepository()
	ctx := context.Background()
	ts := time.Now().UTC()

	for _, name := range []string{"first", "second", "third"} {
		if _, err := repo.Create(ctx, newOrder(name, ts)); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	orders, err := repo.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if orders[0].Name != "third" || orders[2].Name != "first" {
		t.Fatalf("unexpected order: %s, %s, %s", orders[0].Name, orders[1].Name, orders[2].Name)
	}
}

func TestOrderRepository_ReturnsCopies(t *testing.T) {
	repo := memory.NewOrderRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, newOrder("buyer", time.Time{}))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	created.Items[0] = json.RawMessage(`"tampered"`)

	orders, err := repo.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if string(orders[0].Items[0]) != `"lesson-1"` {
		t.Fatalf("stored order was mutated from outside: %s", orders[0].Items[0])
	}
}
