package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus описывает состояние заказа.
type OrderStatus string

const (
	// OrderStatusOpen — заказ открыт, скидка на товары ещё применяется.
	OrderStatusOpen OrderStatus = "OPEN"
	// OrderStatusClosed — заказ финализирован, скидка больше не пересчитывается.
	OrderStatusClosed OrderStatus = "CLOSED"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusOpen, OrderStatusClosed:
		return true
	default:
		return false
	}
}

// ParseOrderStatus разбирает статус из внешнего представления без учёта регистра.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrUnknownOrderStatus
	}
	return st, nil
}

// Order — корневой агрегат заказа: статус, набор позиций, скидка и итоговая сумма.
// Набор позиций хранится как map по идентификатору позиции, что делает контракт
// уникальности явным; порядок вставки значения не имеет.
type Order struct {
	id        string
	status    OrderStatus
	items     map[string]OrderItem
	discount  int
	total     decimal.Decimal
	createdAt time.Time
	updatedAt time.Time
}

// NewOrder создаёт заказ: назначает идентификатор, считает итог и проверяет позиции.
func NewOrder(status OrderStatus, items []OrderItem, discount int) (*Order, error) {
	set := buildItemSet(items)
	total := computeTotal(status, set, discount)
	if err := validateItems(set); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Order{
		id:        uuid.NewString(),
		status:    status,
		items:     set,
		discount:  discount,
		total:     total,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// RestoreOrder восстанавливает заказ из сохранённого состояния.
// total == nil означает, что итог неизвестен и его нужно пересчитать.
func RestoreOrder(id string, createdAt, updatedAt time.Time, status OrderStatus, items []OrderItem, discount int, total *decimal.Decimal) (*Order, error) {
	set := buildItemSet(items)

	var t decimal.Decimal
	if total != nil {
		t = *total
	} else {
		t = computeTotal(status, set, discount)
	}
	if err := validateItems(set); err != nil {
		return nil, err
	}

	return &Order{
		id:        id,
		status:    status,
		items:     set,
		discount:  discount,
		total:     t,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

// Update атомарно заменяет статус, позиции и скидку, пересчитывая итог.
// Кандидат нового состояния собирается и проверяется до присваивания полей:
// при ошибке заказ остаётся в прежнем состоянии.
func (o *Order) Update(status OrderStatus, items []OrderItem, discount int) error {
	set := buildItemSet(items)
	total := computeTotal(status, set, discount)
	if err := validateItems(set); err != nil {
		return err
	}

	o.status = status
	o.items = set
	o.discount = discount
	o.total = total
	o.updatedAt = time.Now().UTC()
	return nil
}

// buildItemSet раскладывает позиции в набор, уникальный по идентификатору позиции.
func buildItemSet(items []OrderItem) map[string]OrderItem {
	set := make(map[string]OrderItem, len(items))
	for _, item := range items {
		set[item.id] = item
	}
	return set
}

// validateItems отклоняет набор, если хотя бы одна позиция ссылается на неактивный товар.
func validateItems(items map[string]OrderItem) error {
	for _, item := range items {
		if item.product == nil || !item.product.active {
			return ErrInvalidItem
		}
	}
	return nil
}

// computeTotal выводит итог заказа из текущих позиций, статуса и скидки.
// Позиции с активными товарами делятся на товары и услуги; скидка применяется
// только к товарной части и только для открытого заказа с положительной скидкой.
// Округление выполняется один раз, по итоговой сумме, банковским способом.
func computeTotal(status OrderStatus, items map[string]OrderItem, discount int) decimal.Decimal {
	goods := decimal.Zero
	services := decimal.Zero
	for _, item := range items {
		// Неактивный товар не суммируется ни в одну из частей: валидация отклонит
		// такой заказ, фильтр здесь — вторая линия защиты.
		if item.product == nil || !item.product.active {
			continue
		}
		if item.product.ptype == ProductTypeGood {
			goods = goods.Add(item.Subtotal())
		} else {
			services = services.Add(item.Subtotal())
		}
	}

	if status == OrderStatusOpen && discount > 0 {
		rate := decimal.NewFromInt(int64(discount)).
			Div(decimal.NewFromInt(100)).
			RoundBank(MoneyScale)
		goods = goods.Sub(goods.Mul(rate))
	}

	return services.Add(goods).RoundBank(MoneyScale)
}

// ID возвращает идентификатор заказа.
func (o *Order) ID() string { return o.id }

// Status возвращает текущий статус.
func (o *Order) Status() OrderStatus { return o.status }

// Discount возвращает скидку в процентах.
func (o *Order) Discount() int { return o.discount }

// Total возвращает итоговую сумму заказа.
func (o *Order) Total() decimal.Decimal { return o.total }

// CreatedAt возвращает время создания.
func (o *Order) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt возвращает время последнего изменения.
func (o *Order) UpdatedAt() time.Time { return o.updatedAt }

// Items возвращает позиции заказа, отсортированные по идентификатору позиции.
func (o *Order) Items() []OrderItem {
	result := make([]OrderItem, 0, len(o.items))
	for _, item := range o.items {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].id < result[j].id })
	return result
}

// Equal сравнивает заказы только по идентификатору.
func (o *Order) Equal(other *Order) bool {
	if o == nil || other == nil {
		return o == other
	}
	return o.id == other.id
}
