package domain

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageRequest задаёт параметры постраничной выборки (нумерация страниц с нуля).
type PageRequest struct {
	Page int
	Size int
}

// Normalize приводит запрос к допустимым границам.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

// Offset возвращает смещение выборки.
func (p PageRequest) Offset() int {
	p = p.Normalize()
	return p.Page * p.Size
}

// Limit возвращает размер страницы.
func (p PageRequest) Limit() int {
	return p.Normalize().Size
}

// ProductFilter описывает фильтры списка каталога.
type ProductFilter struct {
	// Name — подстрока названия, без учёта регистра.
	Name string
	// Type — категория; пустое значение отключает фильтр.
	Type ProductType
	// Active — фильтр по флагу активности; nil отключает фильтр.
	Active *bool
}

// OrderFilter описывает фильтры списка заказов.
type OrderFilter struct {
	// Status — статус заказа; пустое значение отключает фильтр.
	Status OrderStatus
}

// ProductRepository описывает требования к хранилищу каталога.
type ProductRepository interface {
	// Create сохраняет новую позицию. Возвращает ошибку, если ID уже занят.
	Create(product *Product) error
	// Get возвращает позицию по идентификатору или ErrProductNotFound.
	Get(id string) (*Product, error)
	// GetByIDs возвращает найденные позиции по набору идентификаторов.
	GetByIDs(ids []string) ([]*Product, error)
	// List возвращает страницу позиций и общее число записей под фильтром.
	List(filter ProductFilter, page PageRequest) ([]*Product, int, error)
	// Save перезаписывает существующую позицию.
	Save(product *Product) error
	// Delete удаляет позицию; ErrProductLinked, если на неё ссылается заказ.
	Delete(id string) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если ID уже занят.
	Create(order *Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(id string) (*Order, error)
	// List возвращает страницу заказов и общее число записей под фильтром.
	List(filter OrderFilter, page PageRequest) ([]*Order, int, error)
	// Save перезаписывает существующий заказ.
	Save(order *Order) error
	// Delete удаляет заказ или возвращает ErrOrderNotFound.
	Delete(id string) error
}
