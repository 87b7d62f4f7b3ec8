package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

func TestIdempotencyRepository_CreateProcessing(t *testing.T) {
	t.Parallel()

	repo := NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(time.Hour)

	record, err := repo.CreateProcessing("key-1", "hash-1", ttl)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if record.Status != domain.IdempotencyStatusProcessing {
		t.Fatalf("expected processing status, got %s", record.Status)
	}

	// Повторная заявка с тем же хэшем — дубликат, отдаём существующую запись.
	existing, err := repo.CreateProcessing("key-1", "hash-1", ttl)
	if !errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) {
		t.Fatalf("expected ErrIdempotencyKeyAlreadyExists, got %v", err)
	}
	if existing.Key != "key-1" {
		t.Fatalf("expected existing record, got %+v", existing)
	}

	// Тот же ключ с другим телом запроса — конфликт.
	if _, err := repo.CreateProcessing("key-1", "hash-2", ttl); !errors.Is(err, domain.ErrIdempotencyHashMismatch) {
		t.Fatalf("expected ErrIdempotencyHashMismatch, got %v", err)
	}

	if _, err := repo.CreateProcessing("", "hash", ttl); !errors.Is(err, domain.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected ErrIdempotencyKeyRequired, got %v", err)
	}
	if _, err := repo.CreateProcessing("key-2", " ", ttl); !errors.Is(err, domain.ErrIdempotencyRequestHashRequired) {
		t.Fatalf("expected ErrIdempotencyRequestHashRequired, got %v", err)
	}
}

func TestIdempotencyRepository_MarkDoneStoresResponse(t *testing.T) {
	t.Parallel()

	repo := NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(time.Hour)
	if _, err := repo.CreateProcessing("key-1", "hash-1", ttl); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	body := []byte(`{"id":"p1"}`)
	if err := repo.MarkDone("key-1", body, 201); err != nil {
		t.Fatalf("mark done failed: %v", err)
	}

	record, err := repo.Get("key-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if record.Status != domain.IdempotencyStatusDone {
		t.Fatalf("expected done status, got %s", record.Status)
	}
	if record.HTTPStatus != 201 || string(record.ResponseBody) != `{"id":"p1"}` {
		t.Fatalf("unexpected stored response: %d %s", record.HTTPStatus, record.ResponseBody)
	}

	if err := repo.MarkFailed("missing", nil, 500); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected ErrIdempotencyKeyNotFound, got %v", err)
	}
	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected ErrIdempotencyKeyNotFound, got %v", err)
	}
}

func TestIdempotencyRepository_DeleteExpired(t *testing.T) {
	t.Parallel()

	repo := NewIdempotencyRepository()
	now := time.Now().UTC()

	if _, err := repo.CreateProcessing("expired-1", "h", now.Add(-time.Hour)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repo.CreateProcessing("expired-2", "h", now.Add(-time.Minute)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repo.CreateProcessing("fresh", "h", now.Add(time.Hour)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	removed, err := repo.DeleteExpired(now, 1)
	if err != nil {
		t.Fatalf("delete expired failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected limit to cap deletion at 1, got %d", removed)
	}

	removed, err = repo.DeleteExpired(now, 10)
	if err != nil {
		t.Fatalf("delete expired failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 remaining expired record, got %d", removed)
	}

	if _, err := repo.Get("fresh"); err != nil {
		t.Fatalf("fresh record must survive cleanup: %v", err)
	}
}
