package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type fakeOutboxRepo struct {
	pending   []domain.OutboxMessage
	sentIDs   []string
	failedIDs []string
}

var _ domain.OutboxRepository = (*fakeOutboxRepo)(nil)

func (f *fakeOutboxRepo) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	return msg, nil
}

func (f *fakeOutboxRepo) PullPending(limit int) ([]domain.OutboxMessage, error) {
	if limit > 0 && limit < len(f.pending) {
		return append([]domain.OutboxMessage(nil), f.pending[:limit]...), nil
	}
	return append([]domain.OutboxMessage(nil), f.pending...), nil
}

func (f *fakeOutboxRepo) Stats() (domain.OutboxStats, error) {
	stats := domain.OutboxStats{PendingCount: len(f.pending)}
	if len(f.pending) > 0 {
		stats.OldestPendingAt = time.Now().UTC().Add(-time.Second)
	}
	return stats, nil
}

func (f *fakeOutboxRepo) MarkSent(id string) error {
	f.sentIDs = append(f.sentIDs, id)
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(id string) error {
	f.failedIDs = append(f.failedIDs, id)
	return nil
}

// fakePublisher возвращает errs по очереди, после исчерпания — успех.
type fakePublisher struct {
	mu    sync.Mutex
	errs  []error
	count int
}

var _ domain.OutboxPublisher = (*fakePublisher)(nil)

func (f *fakePublisher) Publish(_ domain.OutboxMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.count++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakePublisher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func alwaysFailing(err error) *fakePublisher {
	// Три ошибки покрывают максимум попыток в тестах.
	return &fakePublisher{errs: []error{err, err, err}}
}

func orderMessage(id, eventType, payload string) domain.OutboxMessage {
	return domain.OutboxMessage{
		ID:            id,
		AggregateType: "order",
		AggregateID:   "order-for-" + id,
		EventType:     eventType,
		Payload:       []byte(payload),
	}
}

func TestWorker_ProcessOnce_MarkSent(t *testing.T) {
	t.Parallel()

	repo := &fakeOutboxRepo{
		pending: []domain.OutboxMessage{
			orderMessage("msg-1", "order.placed", `{"order_number":"ORD-1"}`),
		},
	}
	publisher := &fakePublisher{}

	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0), WithMaxAttempts(3))
	worker.ProcessOnce(context.Background())

	require.Equal(t, []string{"msg-1"}, repo.sentIDs)
	assert.Empty(t, repo.failedIDs)
	assert.Equal(t, 1, publisher.calls())
}

func TestWorker_ProcessOnce_MarkFailedAndDLQAfterRetries(t *testing.T) {
	t.Parallel()

	repo := &fakeOutboxRepo{
		pending: []domain.OutboxMessage{
			orderMessage("msg-2", "order.cancelled", `{"reason":"customer request"}`),
		},
	}
	publisher := alwaysFailing(errors.New("publish failed"))
	dlq := &fakePublisher{}

	worker := NewWorker(repo, publisher,
		WithDLQPublisher(dlq),
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)
	worker.ProcessOnce(context.Background())

	assert.Equal(t, 3, publisher.calls())
	assert.Empty(t, repo.sentIDs)
	require.Equal(t, []string{"msg-2"}, repo.failedIDs)
	assert.Equal(t, 1, dlq.calls())
}

func TestWorker_ProcessOnce_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	repo := &fakeOutboxRepo{
		pending: []domain.OutboxMessage{
			orderMessage("msg-3", "order.status_changed", `{"status":"shipped"}`),
		},
	}
	publisher := &fakePublisher{errs: []error{
		errors.New("attempt 1"),
		errors.New("attempt 2"),
	}}

	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0), WithMaxAttempts(3))
	worker.ProcessOnce(context.Background())

	assert.Equal(t, 3, publisher.calls())
	assert.Equal(t, []string{"msg-3"}, repo.sentIDs)
	assert.Empty(t, repo.failedIDs)
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	worker := NewWorker(&fakeOutboxRepo{}, &fakePublisher{},
		WithPollInterval(5*time.Millisecond),
		WithRetryBaseDelay(0),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

func TestWorker_RetryBackoffGrows(t *testing.T) {
	t.Parallel()

	worker := NewWorker(&fakeOutboxRepo{}, &fakePublisher{}, WithRetryBaseDelay(10*time.Millisecond))

	first := worker.retryBackoff(1)
	second := worker.retryBackoff(2)
	third := worker.retryBackoff(3)

	assert.Less(t, first, second)
	assert.Less(t, second, third)
}
