package memory

import (
	"sort"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type categoryRepository struct {
	store *Store
}

func (r *categoryRepository) Get(id string) (domain.Category, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[id]
	if !ok {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	return category, nil
}

func (r *categoryRepository) List() ([]domain.Category, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Category, 0, len(s.categories))
	for _, category := range s.categories {
		result = append(result, category)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *categoryRepository) Create(c domain.Category) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories[c.ID] = c
	return nil
}

func (r *categoryRepository) Update(c domain.Category) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[c.ID]; !ok {
		return domain.ErrCategoryNotFound
	}
	s.categories[c.ID] = c
	return nil
}

func (r *categoryRepository) Delete(id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(s.categories, id)
	return nil
}

var _ domain.CategoryRepository = (*categoryRepository)(nil)
