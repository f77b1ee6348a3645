package memory

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type outboxRepository struct {
	store *Store
}

// enqueueLocked добавляет сообщения в outbox. Вызывается только под
// удержанной write-блокировкой Store — так записи заказа и его уведомлений
// образуют одну атомарную единицу.
func (s *Store) enqueueLocked(msgs []domain.OutboxMessage) {
	now := time.Now().UTC()
	for _, msg := range msgs {
		if msg.ID == "" {
			msg.ID = uuid.NewString()
		}
		s.outbox[msg.ID] = &outboxRecord{
			msg:       msg,
			status:    "pending",
			createdAt: now,
			updatedAt: now,
		}
	}
}

// Enqueue сохраняет событие со статусом `pending` и возвращает его идентификатор.
func (r *outboxRepository) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	s.enqueueLocked([]domain.OutboxMessage{msg})
	return msg, nil
}

// PullPending возвращает до limit сообщений со статусом `pending`, старые первыми.
func (r *outboxRepository) PullPending(limit int) ([]domain.OutboxMessage, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	pending := make([]*outboxRecord, 0)
	for _, rec := range s.outbox {
		if rec.status == "pending" {
			pending = append(pending, rec)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].createdAt.Equal(pending[j].createdAt) {
			return pending[i].msg.ID < pending[j].msg.ID
		}
		return pending[i].createdAt.Before(pending[j].createdAt)
	})

	result := make([]domain.OutboxMessage, 0, limit)
	for _, rec := range pending {
		result = append(result, rec.msg)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// Stats возвращает размер и возраст backlog.
func (r *outboxRepository) Stats() (domain.OutboxStats, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.OutboxStats
	for _, rec := range s.outbox {
		if rec.status != "pending" {
			continue
		}
		stats.PendingCount++
		if stats.OldestPendingAt.IsZero() || rec.createdAt.Before(stats.OldestPendingAt) {
			stats.OldestPendingAt = rec.createdAt
		}
	}
	return stats, nil
}

// MarkSent обновляет статус события после успешной публикации.
func (r *outboxRepository) MarkSent(id string) error {
	return r.markStatus(id, "sent")
}

// MarkFailed фиксирует ошибку публикации.
func (r *outboxRepository) MarkFailed(id string) error {
	return r.markStatus(id, "failed")
}

func (r *outboxRepository) markStatus(id, status string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.outbox[id]
	if !ok {
		return domain.ErrOutboxPublish
	}
	record.status = status
	record.attemptCnt++
	record.updatedAt = time.Now().UTC()
	return nil
}

var _ domain.OutboxRepository = (*outboxRepository)(nil)
