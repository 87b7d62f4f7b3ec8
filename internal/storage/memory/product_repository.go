package memory

import (
	"time"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// Create сохраняет новую позицию каталога, если ID ещё не занят.
func (s *Store) Create(product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID()]; exists {
		return domain.ErrAlreadyExists
	}
	s.products[product.ID()] = snapshotProduct(product)
	return nil
}

// Get возвращает позицию каталога или ErrProductNotFound.
func (s *Store) Get(id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return rec.restore(), nil
}

// GetByIDs возвращает найденные позиции по набору идентификаторов.
// Отсутствующие идентификаторы молча пропускаются: полноту набора
// проверяет вызывающий слой.
func (s *Store) GetByIDs(ids []string) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Product, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if rec, ok := s.products[id]; ok {
			result = append(result, rec.restore())
		}
	}
	return result, nil
}

// List возвращает страницу каталога под фильтром, новые записи первыми.
func (s *Store) List(filter domain.ProductFilter, page domain.PageRequest) ([]*domain.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]productRecord, 0, len(s.products))
	for _, rec := range s.products {
		if !containsFold(rec.name, filter.Name) {
			continue
		}
		if filter.Type != "" && rec.ptype != filter.Type {
			continue
		}
		if filter.Active != nil && rec.active != *filter.Active {
			continue
		}
		matched = append(matched, rec)
	}

	sortNewestFirst(matched,
		func(r productRecord) time.Time { return r.createdAt },
		func(r productRecord) string { return r.id },
	)

	total := len(matched)
	pageRecs := paginate(matched, page)
	result := make([]*domain.Product, 0, len(pageRecs))
	for _, rec := range pageRecs {
		result = append(result, rec.restore())
	}
	return result, total, nil
}

// Save перезаписывает существующую позицию каталога.
func (s *Store) Save(product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[product.ID()]; !ok {
		return domain.ErrProductNotFound
	}
	s.products[product.ID()] = snapshotProduct(product)
	return nil
}

// Delete удаляет позицию каталога. Товар, на который ссылается хотя бы один
// заказ, удалить нельзя — это правило целостности каталога.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	for _, order := range s.orders {
		for _, item := range order.items {
			if item.productID == id {
				return domain.ErrProductLinked
			}
		}
	}
	delete(s.products, id)
	return nil
}

var _ domain.ProductRepository = (*Store)(nil)
