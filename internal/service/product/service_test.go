package product

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/storage/memory"
)

// pendingLister открывает тестовый доступ к содержимому in-memory outbox.
type pendingLister interface {
	AllPending() []domain.OutboxMessage
}

func newService(t *testing.T, policy domain.PricePolicy) (*Service, *memory.Store, pendingLister) {
	t.Helper()
	store := memory.NewStore()
	outbox := memory.NewOutboxRepository()
	svc := NewService(store, outbox, policy, nil, nil)
	return svc, store, outbox
}

func eventTypes(pending []domain.OutboxMessage) []string {
	out := make([]string, 0, len(pending))
	for _, msg := range pending {
		out = append(out, msg.EventType)
	}
	return out
}

func TestService_CreateCanonicalizesPrice(t *testing.T) {
	t.Parallel()

	svc, store, _ := newService(t, domain.PricePolicyPassthrough)

	created, err := svc.Create(CreateInput{
		Name:   "  кабель  ",
		Price:  decimal.RequireFromString("10.005"),
		Type:   domain.ProductTypeGood,
		Active: true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Name() != "кабель" {
		t.Fatalf("expected trimmed name, got %q", created.Name())
	}
	if got := created.Price().StringFixed(2); got != "10.00" {
		t.Fatalf("expected canonical price 10.00, got %s", got)
	}

	stored, err := store.Get(created.ID())
	if err != nil {
		t.Fatalf("stored product not found: %v", err)
	}
	if got := stored.Price().StringFixed(2); got != "10.00" {
		t.Fatalf("expected stored price 10.00, got %s", got)
	}
}

func TestService_CreateAppliesPricePolicy(t *testing.T) {
	t.Parallel()

	negative := decimal.NewFromInt(-10)

	rejectSvc, _, _ := newService(t, domain.PricePolicyReject)
	if _, err := rejectSvc.Create(CreateInput{Name: "x", Price: negative, Type: domain.ProductTypeGood}); !errors.Is(err, domain.ErrPriceNegative) {
		t.Fatalf("expected ErrPriceNegative, got %v", err)
	}

	clampSvc, _, _ := newService(t, domain.PricePolicyClamp)
	created, err := clampSvc.Create(CreateInput{Name: "x", Price: negative, Type: domain.ProductTypeGood, Active: true})
	if err != nil {
		t.Fatalf("clamp create failed: %v", err)
	}
	if !created.Price().IsZero() {
		t.Fatalf("expected clamped price 0, got %s", created.Price())
	}

	passSvc, _, _ := newService(t, domain.PricePolicyPassthrough)
	created, err = passSvc.Create(CreateInput{Name: "x", Price: negative, Type: domain.ProductTypeGood, Active: true})
	if err != nil {
		t.Fatalf("passthrough create failed: %v", err)
	}
	if created.Price().StringFixed(2) != "-10.00" {
		t.Fatalf("expected passthrough price -10.00, got %s", created.Price())
	}
}

func TestService_CreateEnqueuesEvent(t *testing.T) {
	t.Parallel()

	svc, _, outbox := newService(t, domain.PricePolicyPassthrough)
	created, err := svc.Create(CreateInput{Name: "кабель", Price: decimal.NewFromInt(10), Type: domain.ProductTypeGood, Active: true})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	pending := outbox.AllPending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(pending))
	}
	evt := pending[0]
	if evt.EventType != "product.created" || evt.AggregateType != "product" || evt.AggregateID != created.ID() {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestService_UpdateRejectedPriceLeavesProductUnchanged(t *testing.T) {
	t.Parallel()

	svc, store, outbox := newService(t, domain.PricePolicyReject)
	created, err := svc.Create(CreateInput{Name: "кабель", Price: decimal.NewFromInt(10), Type: domain.ProductTypeGood, Active: true})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.Update(created.ID(), UpdateInput{Name: "кабель", Price: decimal.NewFromInt(-1), Type: domain.ProductTypeGood, Active: true}); !errors.Is(err, domain.ErrPriceNegative) {
		t.Fatalf("expected ErrPriceNegative, got %v", err)
	}

	stored, err := store.Get(created.ID())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Price().StringFixed(2) != "10.00" {
		t.Fatalf("price must stay 10.00 after rejected update, got %s", stored.Price())
	}

	// Только событие о создании: неудачное обновление ничего не публикует.
	if got := len(outbox.AllPending()); got != 1 {
		t.Fatalf("expected 1 outbox event, got %d", got)
	}
}

func TestService_UpdateUnknownProduct(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t, domain.PricePolicyPassthrough)
	if _, err := svc.Update("missing", UpdateInput{Name: "x", Price: decimal.NewFromInt(1), Type: domain.ProductTypeGood}); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestService_DeleteLinkedProduct(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	orders := memory.NewOrderRepository(store)
	outbox := memory.NewOutboxRepository()
	svc := NewService(store, outbox, domain.PricePolicyPassthrough, nil, nil)

	created, err := svc.Create(CreateInput{Name: "щиток", Price: decimal.NewFromInt(50), Type: domain.ProductTypeGood, Active: true})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	order, err := domain.NewOrder(domain.OrderStatusOpen, []domain.OrderItem{domain.NewOrderItem(created, 1)}, 0)
	if err != nil {
		t.Fatalf("new order failed: %v", err)
	}
	if err := orders.Create(order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := svc.Delete(created.ID()); !errors.Is(err, domain.ErrProductLinked) {
		t.Fatalf("expected ErrProductLinked, got %v", err)
	}
	// Неудачное удаление не публикует событие.
	if got := len(outbox.AllPending()); got != 1 {
		t.Fatalf("expected only the create event, got %d", got)
	}

	if err := orders.Delete(order.ID()); err != nil {
		t.Fatalf("delete order failed: %v", err)
	}
	if err := svc.Delete(created.ID()); err != nil {
		t.Fatalf("delete product failed: %v", err)
	}
	pending := outbox.AllPending()
	found := false
	for _, msg := range pending {
		if msg.EventType == "product.deleted" && msg.AggregateID == created.ID() {
			found = true
		}
	}
	if len(pending) != 2 || !found {
		t.Fatalf("expected product.deleted event, got %v", eventTypes(pending))
	}
}
