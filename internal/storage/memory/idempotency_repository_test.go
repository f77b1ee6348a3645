package memory_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func TestIdempotencyRepository_CreateProcessing(t *testing.T) {
	repo := memory.NewIdempotencyRepository()

	record, err := repo.CreateProcessing("key-1", "hash-1", time.Time{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if record.Status != domain.IdempotencyStatusProcessing {
		t.Fatalf("expected processing, got %s", record.Status)
	}
	if record.TTLAt.IsZero() {
		t.Fatal("expected default TTL to be set")
	}
}

func TestIdempotencyRepository_CreateProcessing_Validation(t *testing.T) {
	repo := memory.NewIdempotencyRepository()

	if _, err := repo.CreateProcessing("  ", "hash", time.Time{}); err != domain.ErrIdempotencyKeyRequired {
		t.Fatalf("expected ErrIdempotencyKeyRequired, got %v", err)
	}
	if _, err := repo.CreateProcessing("key", "  ", time.Time{}); err != domain.ErrIdempotencyRequestHashRequired {
		t.Fatalf("expected ErrIdempotencyRequestHashRequired, got %v", err)
	}
}

func TestIdempotencyRepository_DuplicateKey(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	if _, err := repo.CreateProcessing("key-1", "hash-1", time.Time{}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	existing, err := repo.CreateProcessing("key-1", "hash-1", time.Time{})
	if err != domain.ErrIdempotencyKeyAlreadyExists {
		t.Fatalf("expected ErrIdempotencyKeyAlreadyExists, got %v", err)
	}
	if existing.Key != "key-1" {
		t.Fatalf("expected existing record, got %+v", existing)
	}

	if _, err := repo.CreateProcessing("key-1", "other-hash", time.Time{}); err != domain.ErrIdempotencyHashMismatch {
		t.Fatalf("expected ErrIdempotencyHashMismatch, got %v", err)
	}
}

func TestIdempotencyRepository_MarkDoneAndReplay(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	_, _ = repo.CreateProcessing("key-1", "hash-1", time.Time{})

	body := []byte(`{"id":"order-1"}`)
	if err := repo.MarkDone("key-1", body, 201); err != nil {
		t.Fatalf("mark done failed: %v", err)
	}

	record, err := repo.Get("key-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if record.Status != domain.IdempotencyStatusDone {
		t.Fatalf("expected done, got %s", record.Status)
	}
	if record.HTTPStatus != 201 {
		t.Fatalf("expected status 201, got %d", record.HTTPStatus)
	}
	if string(record.ResponseBody) != string(body) {
		t.Fatalf("expected stored body, got %s", record.ResponseBody)
	}
}

func TestIdempotencyRepository_MarkFailed(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	_, _ = repo.CreateProcessing("key-1", "hash-1", time.Time{})

	if err := repo.MarkFailed("key-1", []byte(`{"error":"boom"}`), 409); err != nil {
		t.Fatalf("mark failed failed: %v", err)
	}
	record, _ := repo.Get("key-1")
	if record.Status != domain.IdempotencyStatusFailed {
		t.Fatalf("expected failed, got %s", record.Status)
	}
}

func TestIdempotencyRepository_DeleteExpired(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	now := time.Now().UTC()

	_, _ = repo.CreateProcessing("old-1", "h", now.Add(-time.Hour))
	_, _ = repo.CreateProcessing("old-2", "h", now.Add(-time.Minute))
	_, _ = repo.CreateProcessing("fresh", "h", now.Add(time.Hour))

	deleted, err := repo.DeleteExpired(now, 10)
	if err != nil {
		t.Fatalf("delete expired failed: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}

	if _, err := repo.Get("fresh"); err != nil {
		t.Fatalf("fresh record should survive, got %v", err)
	}
	if _, err := repo.Get("old-1"); err != domain.ErrIdempotencyKeyNotFound {
		t.Fatalf("expected ErrIdempotencyKeyNotFound, got %v", err)
	}
}

func TestIdempotencyRepository_DeleteExpired_Limit(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	now := time.Now().UTC()

	_, _ = repo.CreateProcessing("old-1", "h", now.Add(-time.Hour))
	_, _ = repo.CreateProcessing("old-2", "h", now.Add(-time.Hour))

	deleted, err := repo.DeleteExpired(now, 1)
	if err != nil {
		t.Fatalf("delete expired failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted with limit, got %d", deleted)
	}
}
