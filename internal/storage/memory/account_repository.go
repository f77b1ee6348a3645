package memory

import (
	"sort"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type addressRepository struct {
	store *Store
}

func (r *addressRepository) Get(id string) (domain.Address, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	address, ok := s.addresses[id]
	if !ok {
		return domain.Address{}, domain.ErrAddressNotFound
	}
	return address, nil
}

func (r *addressRepository) ListByUser(userID string) ([]domain.Address, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Address, 0)
	for _, address := range s.addresses {
		if address.UserID == userID {
			result = append(result, address)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *addressRepository) Create(a domain.Address) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addresses[a.ID] = a
	return nil
}

// Delete удаляет адрес только у его владельца.
func (r *addressRepository) Delete(id, userID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	address, ok := s.addresses[id]
	if !ok || address.UserID != userID {
		return domain.ErrAddressNotFound
	}
	delete(s.addresses, id)
	return nil
}

var _ domain.AddressRepository = (*addressRepository)(nil)

type userRepository struct {
	store *Store
}

func (r *userRepository) Get(id string) (domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *userRepository) GetByEmail(email string) (domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range s.users {
		if strings.ToLower(user.Email) == email {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (r *userRepository) Create(u domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.ID] = u
	return nil
}

func (r *userRepository) Update(u domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	s.users[u.ID] = u
	return nil
}

func (r *userRepository) List(limit int) ([]domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ domain.UserRepository = (*userRepository)(nil)
