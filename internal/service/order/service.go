package order

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/metrics"
)

const (
	aggregateType = "order"

	eventOrderCreated = "order.created"
	eventOrderUpdated = "order.updated"
	eventOrderDeleted = "order.deleted"
)

// Service инкапсулирует операции над заказами: разрешение позиций
// через каталог, пересчёт итога и постановку событий в outbox.
type Service struct {
	orders   domain.OrderRepository
	products domain.ProductRepository
	outbox   domain.OutboxRepository
	metrics  *metrics.CatalogMetrics
	logger   *log.Entry
}

// NewService конструирует сервис заказов с зависимостями.
func NewService(
	orders domain.OrderRepository,
	products domain.ProductRepository,
	outbox domain.OutboxRepository,
	catalogMetrics *metrics.CatalogMetrics,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &Service{
		orders:   orders,
		products: products,
		outbox:   outbox,
		metrics:  catalogMetrics,
		logger:   logger,
	}
}

// ItemInput описывает одну позицию заказа во входных данных.
type ItemInput struct {
	ProductID string
	Amount    int64
}

// Input описывает данные для создания или полной замены заказа.
type Input struct {
	Status   domain.OrderStatus
	Items    []ItemInput
	Discount int
}

// Create создаёт заказ: разрешает товары по каталогу, считает итог,
// проверяет позиции и ставит событие в outbox.
func (s *Service) Create(in Input) (order *domain.Order, err error) {
	defer func() { s.metrics.RecordOrderOp("create", err) }()

	items, err := s.resolveItems(in.Items)
	if err != nil {
		return nil, err
	}

	order, err = domain.NewOrder(in.Status, items, in.Discount)
	if err != nil {
		return nil, err
	}

	if err = s.orders.Create(order); err != nil {
		s.logger.WithError(err).Error("failed to create order")
		return nil, err
	}

	total, _ := order.Total().Float64()
	s.metrics.RecordOrderTotal(total)
	s.enqueueEvent(eventOrderCreated, order)
	return order, nil
}

// Get возвращает заказ по идентификатору.
func (s *Service) Get(id string) (*domain.Order, error) {
	return s.orders.Get(id)
}

// List возвращает страницу заказов и общее количество записей под фильтром.
func (s *Service) List(filter domain.OrderFilter, page domain.PageRequest) ([]*domain.Order, int, error) {
	return s.orders.List(filter, page.Normalize())
}

// Update атомарно заменяет состояние заказа: при любой ошибке проверки
// сохранённый заказ остаётся нетронутым.
func (s *Service) Update(id string, in Input) (order *domain.Order, err error) {
	defer func() { s.metrics.RecordOrderOp("update", err) }()

	order, err = s.orders.Get(id)
	if err != nil {
		return nil, err
	}

	items, err := s.resolveItems(in.Items)
	if err != nil {
		return nil, err
	}

	if err = order.Update(in.Status, items, in.Discount); err != nil {
		return nil, err
	}
	if err = s.orders.Save(order); err != nil {
		s.logger.WithError(err).WithField("order_id", id).Error("failed to save order")
		return nil, err
	}

	total, _ := order.Total().Float64()
	s.metrics.RecordOrderTotal(total)
	s.enqueueEvent(eventOrderUpdated, order)
	return order, nil
}

// Delete удаляет заказ и ставит событие в outbox.
func (s *Service) Delete(id string) (err error) {
	defer func() { s.metrics.RecordOrderOp("delete", err) }()

	if err = s.orders.Delete(id); err != nil {
		return err
	}

	s.enqueue(eventOrderDeleted, id, orderEventPayload{ID: id})
	return nil
}

// resolveItems разрешает входные позиции через каталог.
// Повторы одного товара схлопываются в первое вхождение; отсутствующий
// в каталоге товар — ErrProductNotFound.
func (s *Service) resolveItems(inputs []ItemInput) ([]domain.OrderItem, error) {
	ids := make([]string, 0, len(inputs))
	firstAmount := make(map[string]int64, len(inputs))
	for _, in := range inputs {
		if _, seen := firstAmount[in.ProductID]; seen {
			continue
		}
		firstAmount[in.ProductID] = in.Amount
		ids = append(ids, in.ProductID)
	}

	products, err := s.products.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(products) != len(ids) {
		return nil, domain.ErrProductNotFound
	}

	byID := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID()] = p
	}

	items := make([]domain.OrderItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, domain.NewOrderItem(byID[id], firstAmount[id]))
	}
	return items, nil
}

type orderEventPayload struct {
	ID        string    `json:"id"`
	Status    string    `json:"status,omitempty"`
	Discount  int       `json:"discount,omitempty"`
	Total     string    `json:"total,omitempty"`
	ItemCount int       `json:"item_count,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

func (s *Service) enqueueEvent(eventType string, order *domain.Order) {
	s.enqueue(eventType, order.ID(), orderEventPayload{
		ID:        order.ID(),
		Status:    string(order.Status()),
		Discount:  order.Discount(),
		Total:     order.Total().StringFixed(domain.MoneyScale),
		ItemCount: len(order.Items()),
		UpdatedAt: order.UpdatedAt(),
	})
}

func (s *Service) enqueue(eventType, aggregateID string, payload orderEventPayload) {
	if s.outbox == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).WithField("event", eventType).Warn("failed to encode order event")
		return
	}

	if _, err := s.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       body,
	}); err != nil {
		s.logger.WithError(err).WithField("event", eventType).Warn("failed to enqueue order event")
		return
	}

	s.metrics.RecordOutboxEvent()
}
