package domain

// OrderRepository описывает требования к хранилищу заказов.
//
// PlaceOrder, Cancel и UpdateStatus — транзакционные единицы: либо все их
// эффекты фиксируются, либо ни один. Реализация обязана сериализовать
// конкурирующие изменения строк стока (row-level locking либо optimistic
// retry) — прикладной код собственных блокировок не держит.
type OrderRepository interface {
	// PlaceOrder атомарно: сохраняет заказ с позициями, уменьшает сток
	// каждого товара (с защитой от ухода в минус), очищает корзину
	// владельца и кладёт уведомления в outbox. При нехватке стока
	// возвращает *InsufficientStockError, при занятом номере заказа —
	// ErrOrderNumberConflict; в обоих случаях никаких изменений не остаётся.
	PlaceOrder(order Order, notifications []OutboxMessage) error
	// Cancel атомарно возвращает сток по позициям заказа, переводит его в
	// cancelled и дописывает причину в notes. Для уже отменённого заказа
	// возвращает ErrOrderAlreadyCancelled, не трогая сток.
	Cancel(id, note string, notifications []OutboxMessage) (Order, error)
	// UpdateStatus переводит заказ в новый статус без складских эффектов.
	// Обновление проверяет version (optimistic locking): при гонке
	// возвращается ErrOrderVersionConflict и вызывающая сторона перечитывает.
	UpdateStatus(id string, status OrderStatus, note string, version int64, notifications []OutboxMessage) (Order, error)
	// Get возвращает заказ с позициями или ErrOrderNotFound.
	Get(id string) (Order, error)
	// GetByNumber ищет заказ по человекочитаемому номеру.
	GetByNumber(number string) (Order, error)
	// ListByUser возвращает заказы пользователя, новые первыми.
	ListByUser(userID string, limit int) ([]Order, error)
	// List возвращает заказы всех пользователей (админский обзор).
	List(limit int) ([]Order, error)
}

// ProductRepository описывает хранилище каталога товаров.
type ProductRepository interface {
	Get(id string) (Product, error)
	List(limit int) ([]Product, error)
	ListByCategory(categoryID string, limit int) ([]Product, error)
	// SearchByPrefix ищет товары по префиксу имени (регистронезависимо).
	SearchByPrefix(prefix string, limit int) ([]Product, error)
	Create(p Product) error
	Update(p Product) error
	// Delete отклоняется с ErrProductReferenced, если на товар ссылаются заказы.
	Delete(id string) error
	// DecrementStock атомарно уменьшает сток одной строки; при нехватке
	// возвращает *InsufficientStockError, не меняя строку.
	DecrementStock(productID string, qty int32) error
	// IncrementStock атомарно возвращает сток. Используется только при
	// восстановлении после отмены, не как админская правка остатков.
	IncrementStock(productID string, qty int32) error
}

// CategoryRepository описывает хранилище разделов каталога.
type CategoryRepository interface {
	Get(id string) (Category, error)
	List() ([]Category, error)
	Create(c Category) error
	Update(c Category) error
	Delete(id string) error
}

// CartRepository описывает корзину: upsert-семантика по паре (user, product).
type CartRepository interface {
	ListByUser(userID string) ([]CartLine, error)
	Upsert(line CartLine) error
	Remove(userID, productID string) error
	Clear(userID string) error
}

// AddressRepository описывает адресную книгу.
type AddressRepository interface {
	Get(id string) (Address, error)
	ListByUser(userID string) ([]Address, error)
	Create(a Address) error
	Delete(id, userID string) error
}

// UserRepository описывает учётные записи.
type UserRepository interface {
	Get(id string) (User, error)
	GetByEmail(email string) (User, error)
	Create(u User) error
	Update(u User) error
	List(limit int) ([]User, error)
}
