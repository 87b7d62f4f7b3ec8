package domain

import "errors"

var (
	// ErrInvalidItem возвращается, когда заказ содержит позицию с неактивным товаром.
	ErrInvalidItem = errors.New("order contains inactive product")
	// ErrPriceNegative возвращается политикой reject при отрицательной цене.
	ErrPriceNegative = errors.New("product price must be non-negative")
	// ErrProductNotFound возвращается, если позиция каталога не найдена.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductLinked возвращается при попытке удалить товар, на который ссылается заказ.
	ErrProductLinked = errors.New("product is linked to an order")
	// ErrAlreadyExists возвращается при создании записи с занятым идентификатором.
	ErrAlreadyExists = errors.New("entity already exists")
	// Ошибка разбора категории товара.
	ErrUnknownProductType = errors.New("unknown product type")
	// Ошибка разбора статуса заказа.
	ErrUnknownOrderStatus = errors.New("unknown order status")
	// Ошибка разбора политики цен.
	ErrUnknownPricePolicy = errors.New("unknown price policy")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
	// Ошибки обработки idempotency-ключей.
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key reused with different request")
)

// IsInvalidItem проверяет, является ли ошибка отказом из-за неактивного товара.
func IsInvalidItem(err error) bool {
	return errors.Is(err, ErrInvalidItem)
}

// IsNotFound проверяет, является ли ошибка отсутствием товара или заказа.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrOrderNotFound)
}
