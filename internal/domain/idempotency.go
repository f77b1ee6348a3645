package domain

import (
	"errors"
	"time"
)

// IdempotencyStatus — фаза обработки запроса под ключом идемпотентности.
type IdempotencyStatus string

const (
	// IdempotencyStatusProcessing: первый запрос ещё в работе, дубликат получает конфликт.
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	// IdempotencyStatusDone: ответ сохранён и воспроизводится при повторе.
	IdempotencyStatusDone IdempotencyStatus = "done"
	// IdempotencyStatusFailed: бизнес-ошибка тоже воспроизводится, а не выполняется заново.
	IdempotencyStatusFailed IdempotencyStatus = "failed"
)

var (
	// ErrIdempotencyKeyRequired — пустой idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — пустой хеш запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyAlreadyExists — ключ уже зарегистрирован с тем же запросом.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — ключ переиспользован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
	// ErrIdempotencyKeyNotFound — запись по ключу отсутствует.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
)

// IdempotencyRecord хранит состояние обработки запроса с idempotency-key.
// Защищает оформление заказа от повторной отправки формы: повторный запрос
// с тем же ключом получает сохранённый ответ вместо второго заказа.
type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseBody []byte
	HTTPStatus   int
	Status       IdempotencyStatus
	TTLAt        time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Valid отсекает статусы, которых нет в жизненном цикле ключа.
func (s IdempotencyStatus) Valid() bool {
	switch s {
	case IdempotencyStatusProcessing, IdempotencyStatusDone, IdempotencyStatusFailed:
		return true
	}
	return false
}
