package memory_test

import (
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func TestOutboxRepository_EnqueuePull(t *testing.T) {
	repo := memory.NewStore().Outbox()

	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     "order.placed",
		Payload:       []byte(`{}`),
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
		t.Fatalf("expected the enqueued message, got %v", pending)
	}
}

func TestOutboxRepository_MarkSent(t *testing.T) {
	repo := memory.NewStore().Outbox()
	msg, _ := repo.Enqueue(domain.OutboxMessage{EventType: "order.placed"})

	if err := repo.MarkSent(msg.ID); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}

	pending, _ := repo.PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("expected empty backlog, got %d", len(pending))
	}
}

func TestOutboxRepository_MarkUnknown(t *testing.T) {
	repo := memory.NewStore().Outbox()
	if err := repo.MarkSent("missing"); err != domain.ErrOutboxPublish {
		t.Fatalf("expected ErrOutboxPublish, got %v", err)
	}
}

func TestOutboxRepository_Stats(t *testing.T) {
	repo := memory.NewStore().Outbox()

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.PendingCount != 0 || !stats.OldestPendingAt.IsZero() {
		t.Fatalf("expected empty stats, got %+v", stats)
	}

	_, _ = repo.Enqueue(domain.OutboxMessage{EventType: "order.placed"})
	_, _ = repo.Enqueue(domain.OutboxMessage{EventType: "order.cancelled"})

	stats, _ = repo.Stats()
	if stats.PendingCount != 2 {
		t.Fatalf("expected 2 pending, got %d", stats.PendingCount)
	}
	if stats.OldestPendingAt.IsZero() {
		t.Fatal("expected oldest pending timestamp")
	}
}

func TestOutboxRepository_PullLimit(t *testing.T) {
	repo := memory.NewStore().Outbox()
	for i := 0; i < 5; i++ {
		_, _ = repo.Enqueue(domain.OutboxMessage{EventType: "order.placed"})
	}

	pending, _ := repo.PullPending(3)
	if len(pending) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(pending))
	}
}
