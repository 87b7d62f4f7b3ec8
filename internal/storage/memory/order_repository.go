package memory

import (
	"time"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// Orders реализует OrderRepository поверх общего хранилища: заказы и каталог
// живут под одним mutex, чтобы проверки связанности были согласованными.
type Orders struct {
	store *Store
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository(store *Store) *Orders {
	return &Orders{store: store}
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (r *Orders) Create(order *domain.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.orders[order.ID()]; exists {
		return domain.ErrAlreadyExists
	}
	r.store.orders[order.ID()] = snapshotOrder(order)
	return nil
}

// Get возвращает заказ, пересобранный против текущего состояния каталога,
// или ErrOrderNotFound. Если товар заказа деактивирован после сохранения,
// пересборка вернёт ErrInvalidItem — как и исходная система при загрузке.
func (r *Orders) Get(id string) (*domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return r.store.restoreOrder(rec)
}

// List возвращает страницу заказов под фильтром, новые записи первыми.
func (r *Orders) List(filter domain.OrderFilter, page domain.PageRequest) ([]*domain.Order, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]orderRecord, 0, len(r.store.orders))
	for _, rec := range r.store.orders {
		if filter.Status != "" && rec.status != filter.Status {
			continue
		}
		matched = append(matched, rec)
	}

	sortNewestFirst(matched,
		func(rec orderRecord) time.Time { return rec.createdAt },
		func(rec orderRecord) string { return rec.id },
	)

	total := len(matched)
	result := make([]*domain.Order, 0, page.Limit())
	for _, rec := range paginate(matched, page) {
		order, err := r.store.restoreOrder(rec)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, order)
	}
	return result, total, nil
}

// Save перезаписывает существующий заказ.
func (r *Orders) Save(order *domain.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.orders[order.ID()]; !ok {
		return domain.ErrOrderNotFound
	}
	r.store.orders[order.ID()] = snapshotOrder(order)
	return nil
}

// Delete удаляет заказ или возвращает ErrOrderNotFound.
func (r *Orders) Delete(id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.store.orders, id)
	return nil
}

var _ domain.OrderRepository = (*Orders)(nil)
