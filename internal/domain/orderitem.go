package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem связывает позицию каталога с запрошенным количеством внутри заказа.
// Товар разделяется с каталогом, а не копируется: заказ его не мутирует.
type OrderItem struct {
	id        string
	product   *Product
	amount    int64
	createdAt time.Time
}

// NewOrderItem создаёт позицию заказа с собственным идентификатором.
func NewOrderItem(product *Product, amount int64) OrderItem {
	return OrderItem{
		id:        uuid.NewString(),
		product:   product,
		amount:    amount,
		createdAt: time.Now().UTC(),
	}
}

// RestoreOrderItem восстанавливает позицию заказа из сохранённого состояния.
func RestoreOrderItem(id string, createdAt time.Time, product *Product, amount int64) OrderItem {
	return OrderItem{
		id:        id,
		product:   product,
		amount:    amount,
		createdAt: createdAt,
	}
}

// ID возвращает идентификатор позиции заказа (не совпадает с идентификатором товара).
func (i OrderItem) ID() string { return i.id }

// Product возвращает ссылку на позицию каталога.
func (i OrderItem) Product() *Product { return i.product }

// Amount возвращает запрошенное количество.
func (i OrderItem) Amount() int64 { return i.amount }

// CreatedAt возвращает время добавления позиции.
func (i OrderItem) CreatedAt() time.Time { return i.createdAt }

// Subtotal возвращает стоимость позиции: каноническая цена товара × количество.
func (i OrderItem) Subtotal() decimal.Decimal {
	if i.product == nil {
		return decimal.Zero
	}
	return i.product.Price().Mul(decimal.NewFromInt(i.amount))
}

// Equal сравнивает позиции заказа только по идентификатору.
func (i OrderItem) Equal(other OrderItem) bool { return i.id == other.id }
