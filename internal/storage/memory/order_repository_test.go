package memory

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

func seedOrder(t *testing.T, store *Store, orders *Orders, status domain.OrderStatus, discount int) (*domain.Order, *domain.Product) {
	t.Helper()

	p := newProduct(t, "кабель", "30.00", domain.ProductTypeGood, true)
	if err := store.Create(p); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	order, err := domain.NewOrder(status, []domain.OrderItem{domain.NewOrderItem(p, 2)}, discount)
	if err != nil {
		t.Fatalf("new order failed: %v", err)
	}
	if err := orders.Create(order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order, p
}

func TestOrders_CreateAndGet(t *testing.T) {
	t.Parallel()

	store := NewStore()
	orders := NewOrderRepository(store)
	order, _ := seedOrder(t, store, orders, domain.OrderStatusOpen, 10)

	if err := orders.Create(order); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := orders.Get(order.ID())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !got.Equal(order) {
		t.Fatalf("unexpected order %s", got.ID())
	}
	// Сохранённый итог переживает чтение: 60.00 − 10% = 54.00.
	if got.Total().StringFixed(2) != "54.00" {
		t.Fatalf("expected total 54.00, got %s", got.Total())
	}

	if _, err := orders.Get("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrders_GetRehydratesAgainstCatalog(t *testing.T) {
	t.Parallel()

	store := NewStore()
	orders := NewOrderRepository(store)
	order, p := seedOrder(t, store, orders, domain.OrderStatusOpen, 0)

	// Деактивируем товар после сохранения заказа: чтение заказа
	// пересобирает его против каталога и отклоняет набор позиций.
	if err := p.Update(p.Name(), p.Price(), p.Type(), false, domain.PricePolicyPassthrough); err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}
	if err := store.Save(p); err != nil {
		t.Fatalf("save product failed: %v", err)
	}

	if _, err := orders.Get(order.ID()); !errors.Is(err, domain.ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem after deactivation, got %v", err)
	}
}

func TestOrders_ListFiltersByStatus(t *testing.T) {
	t.Parallel()

	store := NewStore()
	orders := NewOrderRepository(store)

	p := newProduct(t, "щиток", "50.00", domain.ProductTypeGood, true)
	if err := store.Create(p); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	for _, status := range []domain.OrderStatus{domain.OrderStatusOpen, domain.OrderStatusOpen, domain.OrderStatusClosed} {
		order, err := domain.NewOrder(status, []domain.OrderItem{domain.NewOrderItem(p, 1)}, 0)
		if err != nil {
			t.Fatalf("new order failed: %v", err)
		}
		if err := orders.Create(order); err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	got, total, err := orders.List(domain.OrderFilter{Status: domain.OrderStatusOpen}, domain.PageRequest{})
	if err != nil {
		t.Fatalf("list open failed: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("expected 2 open orders, got total=%d len=%d", total, len(got))
	}

	_, total, err = orders.List(domain.OrderFilter{}, domain.PageRequest{Page: 0, Size: 2})
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
}

func TestOrders_SaveAndDelete(t *testing.T) {
	t.Parallel()

	store := NewStore()
	orders := NewOrderRepository(store)
	order, p := seedOrder(t, store, orders, domain.OrderStatusOpen, 0)

	if err := order.Update(domain.OrderStatusClosed, []domain.OrderItem{domain.NewOrderItem(p, 3)}, 20); err != nil {
		t.Fatalf("domain update failed: %v", err)
	}
	if err := orders.Save(order); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := orders.Get(order.ID())
	if err != nil {
		t.Fatalf("get after save failed: %v", err)
	}
	if got.Status() != domain.OrderStatusClosed {
		t.Fatalf("expected CLOSED, got %s", got.Status())
	}
	// Скидка не действует на закрытый заказ: 3×30.00 = 90.00.
	if got.Total().StringFixed(2) != "90.00" {
		t.Fatalf("expected total 90.00, got %s", got.Total())
	}

	if err := orders.Delete(order.ID()); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := orders.Delete(order.ID()); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	phantom, err := domain.NewOrder(domain.OrderStatusOpen, []domain.OrderItem{domain.NewOrderItem(p, 1)}, 0)
	if err != nil {
		t.Fatalf("new order failed: %v", err)
	}
	if err := orders.Save(phantom); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound on save of unknown order, got %v", err)
	}
}
