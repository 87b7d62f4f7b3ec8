package memory

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

func TestOutboxRepository_EnqueueAssignsID(t *testing.T) {
	t.Parallel()

	repo := NewOutboxRepository()
	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "product",
		AggregateID:   "p1",
		EventType:     "product.created",
		Payload:       []byte(`{"id":"p1"}`),
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if msg.ID == "" {
		t.Fatal("expected generated message id")
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != msg.ID {
		t.Fatalf("expected 1 pending message, got %d", len(pending))
	}
}

func TestOutboxRepository_PullPendingLimitAndOrder(t *testing.T) {
	t.Parallel()

	repo := NewOutboxRepository()
	for _, id := range []string{"b", "a", "c"} {
		if _, err := repo.Enqueue(domain.OutboxMessage{ID: id, AggregateType: "order", EventType: "order.created"}); err != nil {
			t.Fatalf("enqueue %s failed: %v", id, err)
		}
	}

	pending, err := repo.PullPending(2)
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected limit 2, got %d", len(pending))
	}
}

func TestOutboxRepository_MarkSentRemovesFromPending(t *testing.T) {
	t.Parallel()

	repo := NewOutboxRepository()
	msg, err := repo.Enqueue(domain.OutboxMessage{AggregateType: "product", EventType: "product.deleted"})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	if err := repo.MarkSent(msg.ID); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending after MarkSent, got %d", len(pending))
	}

	if err := repo.MarkSent("missing"); err == nil {
		t.Fatal("expected error for unknown message id")
	}
}

func TestOutboxRepository_MarkFailedKeepsRecordOutOfPending(t *testing.T) {
	t.Parallel()

	repo := NewOutboxRepository()
	msg, err := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", EventType: "order.updated"})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if err := repo.MarkFailed(msg.ID); err != nil {
		t.Fatalf("mark failed failed: %v", err)
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.PendingCount != 0 {
		t.Fatalf("expected empty backlog, got %d", stats.PendingCount)
	}
}

func TestOutboxRepository_Stats(t *testing.T) {
	t.Parallel()

	repo := NewOutboxRepository()

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.PendingCount != 0 || !stats.OldestPendingAt.IsZero() {
		t.Fatalf("expected empty stats, got %+v", stats)
	}

	if _, err := repo.Enqueue(domain.OutboxMessage{AggregateType: "product", EventType: "product.created"}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if _, err := repo.Enqueue(domain.OutboxMessage{AggregateType: "product", EventType: "product.updated"}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	stats, err = repo.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.PendingCount != 2 {
		t.Fatalf("expected 2 pending, got %d", stats.PendingCount)
	}
	if stats.OldestPendingAt.IsZero() || stats.OldestPendingAt.After(time.Now().UTC()) {
		t.Fatalf("unexpected oldest pending timestamp: %v", stats.OldestPendingAt)
	}
}
