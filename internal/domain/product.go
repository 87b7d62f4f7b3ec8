package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyScale — число знаков после запятой для всех денежных значений каталога.
const MoneyScale = 2

// ProductType определяет категорию позиции каталога.
type ProductType string

const (
	// ProductTypeGood — физический товар, участвует в скидке заказа.
	ProductTypeGood ProductType = "GOOD"
	// ProductTypeService — услуга, скидка на неё не распространяется.
	ProductTypeService ProductType = "SERVICE"
)

// Valid проверяет, что категория относится к поддерживаемым значениям.
func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeGood, ProductTypeService:
		return true
	default:
		return false
	}
}

// ParseProductType разбирает категорию из внешнего представления без учёта регистра.
func ParseProductType(s string) (ProductType, error) {
	t := ProductType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrUnknownProductType
	}
	return t, nil
}

// PricePolicy определяет поведение при записи отрицательной цены.
type PricePolicy string

const (
	// PricePolicyReject — отрицательная цена отклоняется с ошибкой.
	PricePolicyReject PricePolicy = "reject"
	// PricePolicyClamp — отрицательная цена заменяется нулём.
	PricePolicyClamp PricePolicy = "clamp"
	// PricePolicyPassthrough — цена записывается как есть (поведение исходной системы).
	PricePolicyPassthrough PricePolicy = "passthrough"
)

// ParsePricePolicy разбирает политику цен из конфигурации.
func ParsePricePolicy(s string) (PricePolicy, error) {
	p := PricePolicy(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PricePolicyReject, PricePolicyClamp, PricePolicyPassthrough:
		return p, nil
	default:
		return "", ErrUnknownPricePolicy
	}
}

// ApplyPricePolicy применяет политику к цене перед записью.
func ApplyPricePolicy(price decimal.Decimal, policy PricePolicy) (decimal.Decimal, error) {
	if !price.IsNegative() {
		return price, nil
	}
	switch policy {
	case PricePolicyReject:
		return decimal.Decimal{}, ErrPriceNegative
	case PricePolicyClamp:
		return decimal.Zero, nil
	default:
		return price, nil
	}
}

// Product — позиция каталога: товар или услуга с ценой и флагом активности.
type Product struct {
	id        string
	name      string
	price     decimal.Decimal
	ptype     ProductType
	active    bool
	createdAt time.Time
	updatedAt time.Time
}

// NewProduct создаёт позицию каталога с новым идентификатором и временем создания.
func NewProduct(name string, price decimal.Decimal, ptype ProductType, active bool) *Product {
	now := time.Now().UTC()
	return &Product{
		id:        uuid.NewString(),
		name:      name,
		price:     price,
		ptype:     ptype,
		active:    active,
		createdAt: now,
		updatedAt: now,
	}
}

// RestoreProduct восстанавливает позицию каталога из сохранённого состояния.
func RestoreProduct(id string, createdAt, updatedAt time.Time, name string, price decimal.Decimal, ptype ProductType, active bool) *Product {
	return &Product{
		id:        id,
		name:      name,
		price:     price,
		ptype:     ptype,
		active:    active,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// Update заменяет имя, цену, категорию и флаг активности целиком.
// Цена канонизируется до MoneyScale знаков банковским округлением в момент записи.
func (p *Product) Update(name string, price decimal.Decimal, ptype ProductType, active bool, policy PricePolicy) error {
	applied, err := ApplyPricePolicy(price, policy)
	if err != nil {
		return err
	}
	p.name = name
	p.price = applied.RoundBank(MoneyScale)
	p.ptype = ptype
	p.active = active
	p.updatedAt = time.Now().UTC()
	return nil
}

// ID возвращает идентификатор позиции каталога.
func (p *Product) ID() string { return p.id }

// Name возвращает название.
func (p *Product) Name() string { return p.name }

// Price возвращает цену, округлённую до MoneyScale знаков (round-half-to-even).
// Чтение всегда каноническое независимо от точности записанного значения.
func (p *Product) Price() decimal.Decimal { return p.price.RoundBank(MoneyScale) }

// Type возвращает категорию.
func (p *Product) Type() ProductType { return p.ptype }

// Active сообщает, доступна ли позиция для заказов.
func (p *Product) Active() bool { return p.active }

// CreatedAt возвращает время создания.
func (p *Product) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt возвращает время последнего изменения.
func (p *Product) UpdatedAt() time.Time { return p.updatedAt }

// Equal сравнивает позиции каталога только по идентификатору.
func (p *Product) Equal(other *Product) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.id == other.id
}
