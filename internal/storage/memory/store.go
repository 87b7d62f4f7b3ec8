package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// productRecord — снимок позиции каталога для in-memory хранения.
type productRecord struct {
	id        string
	name      string
	price     decimal.Decimal
	ptype     domain.ProductType
	active    bool
	createdAt time.Time
	updatedAt time.Time
}

// orderItemRecord хранит позицию заказа как ссылку на товар, а не его копию:
// при чтении заказ пересобирается против текущего состояния каталога.
type orderItemRecord struct {
	id        string
	productID string
	amount    int64
	createdAt time.Time
}

// orderRecord — снимок заказа для in-memory хранения.
type orderRecord struct {
	id        string
	status    domain.OrderStatus
	items     []orderItemRecord
	discount  int
	total     decimal.Decimal
	createdAt time.Time
	updatedAt time.Time
}

// Store — общее in-memory хранилище каталога и заказов.
// Один mutex на оба словаря: проверка связанности товара с заказами
// должна видеть согласованное состояние обеих таблиц.
type Store struct {
	mu       sync.RWMutex
	products map[string]productRecord
	orders   map[string]orderRecord
}

// NewStore создаёт пустое in-memory хранилище для локальной разработки и тестов.
func NewStore() *Store {
	return &Store{
		products: make(map[string]productRecord),
		orders:   make(map[string]orderRecord),
	}
}

func snapshotProduct(p *domain.Product) productRecord {
	return productRecord{
		id:        p.ID(),
		name:      p.Name(),
		price:     p.Price(),
		ptype:     p.Type(),
		active:    p.Active(),
		createdAt: p.CreatedAt(),
		updatedAt: p.UpdatedAt(),
	}
}

func (rec productRecord) restore() *domain.Product {
	return domain.RestoreProduct(rec.id, rec.createdAt, rec.updatedAt, rec.name, rec.price, rec.ptype, rec.active)
}

func snapshotOrder(o *domain.Order) orderRecord {
	items := o.Items()
	recs := make([]orderItemRecord, 0, len(items))
	for _, item := range items {
		recs = append(recs, orderItemRecord{
			id:        item.ID(),
			productID: item.Product().ID(),
			amount:    item.Amount(),
			createdAt: item.CreatedAt(),
		})
	}
	return orderRecord{
		id:        o.ID(),
		status:    o.Status(),
		items:     recs,
		discount:  o.Discount(),
		total:     o.Total(),
		createdAt: o.CreatedAt(),
		updatedAt: o.UpdatedAt(),
	}
}

// restoreOrder пересобирает заказ, разрешая товары из текущего каталога.
// Вызывается под уже взятой блокировкой.
func (s *Store) restoreOrder(rec orderRecord) (*domain.Order, error) {
	items := make([]domain.OrderItem, 0, len(rec.items))
	for _, ir := range rec.items {
		prec, ok := s.products[ir.productID]
		if !ok {
			return nil, domain.ErrProductNotFound
		}
		items = append(items, domain.RestoreOrderItem(ir.id, ir.createdAt, prec.restore(), ir.amount))
	}
	total := rec.total
	return domain.RestoreOrder(rec.id, rec.createdAt, rec.updatedAt, rec.status, items, rec.discount, &total)
}

func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// paginate применяет offset/limit к уже отфильтрованной выборке.
func paginate[T any](items []T, page domain.PageRequest) []T {
	offset := page.Offset()
	if offset >= len(items) {
		return []T{}
	}
	end := offset + page.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func sortNewestFirst[T any](items []T, createdAt func(T) time.Time, id func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		if !createdAt(items[i]).Equal(createdAt(items[j])) {
			return createdAt(items[i]).After(createdAt(items[j]))
		}
		return id(items[i]) > id(items[j])
	})
}
