// Package memory содержит in-memory реализации репозиториев для локальной
// разработки и тестов. Все репозитории делят одно состояние под общим
// мьютексом, поэтому транзакционные операции (оформление, отмена) атомарны
// относительно конкурирующих запросов — так же, как в postgres-реализации.
package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// outboxRecord хранит сообщение и служебные поля для in-memory реализации.
type outboxRecord struct {
	msg        domain.OutboxMessage
	status     string
	attemptCnt int
	createdAt  time.Time
	updatedAt  time.Time
}

// Store — общее состояние всех in-memory репозиториев.
type Store struct {
	mu sync.RWMutex

	products     map[string]domain.Product
	categories   map[string]domain.Category
	carts        map[string]map[string]domain.CartLine
	addresses    map[string]domain.Address
	users        map[string]domain.User
	orders       map[string]domain.Order
	orderNumbers map[string]string
	outbox       map[string]*outboxRecord
}

// NewStore создаёт пустое состояние.
func NewStore() *Store {
	return &Store{
		products:     make(map[string]domain.Product),
		categories:   make(map[string]domain.Category),
		carts:        make(map[string]map[string]domain.CartLine),
		addresses:    make(map[string]domain.Address),
		users:        make(map[string]domain.User),
		orders:       make(map[string]domain.Order),
		orderNumbers: make(map[string]string),
		outbox:       make(map[string]*outboxRecord),
	}
}

// Orders возвращает репозиторий заказов поверх общего состояния.
func (s *Store) Orders() domain.OrderRepository { return &orderRepository{store: s} }

// Products возвращает репозиторий каталога.
func (s *Store) Products() domain.ProductRepository { return &productRepository{store: s} }

// Categories возвращает репозиторий разделов каталога.
func (s *Store) Categories() domain.CategoryRepository { return &categoryRepository{store: s} }

// Carts возвращает репозиторий корзин.
func (s *Store) Carts() domain.CartRepository { return &cartRepository{store: s} }

// Addresses возвращает репозиторий адресной книги.
func (s *Store) Addresses() domain.AddressRepository { return &addressRepository{store: s} }

// Users возвращает репозиторий учётных записей.
func (s *Store) Users() domain.UserRepository { return &userRepository{store: s} }

// Outbox возвращает репозиторий transactional outbox.
func (s *Store) Outbox() domain.OutboxRepository { return &outboxRepository{store: s} }

// cloneOrder снимает глубокую копию, чтобы избежать мутаций извне.
func cloneOrder(o domain.Order) domain.Order {
	out := o
	out.Lines = make([]domain.OrderLine, len(o.Lines))
	copy(out.Lines, o.Lines)
	return out
}
