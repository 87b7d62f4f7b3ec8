package product

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/metrics"
)

const (
	aggregateType = "product"

	eventProductCreated = "product.created"
	eventProductUpdated = "product.updated"
	eventProductDeleted = "product.deleted"
)

// Service инкапсулирует операции над каталогом: CRUD, политику цен
// и постановку событий в transactional outbox.
type Service struct {
	repo    domain.ProductRepository
	outbox  domain.OutboxRepository
	policy  domain.PricePolicy
	metrics *metrics.CatalogMetrics
	logger  *log.Entry
}

// NewService конструирует сервис каталога с зависимостями.
// outbox и metrics опциональны, policy по умолчанию — passthrough.
func NewService(
	repo domain.ProductRepository,
	outbox domain.OutboxRepository,
	policy domain.PricePolicy,
	catalogMetrics *metrics.CatalogMetrics,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "product-service")
	}
	if policy == "" {
		policy = domain.PricePolicyPassthrough
	}
	return &Service{
		repo:    repo,
		outbox:  outbox,
		policy:  policy,
		metrics: catalogMetrics,
		logger:  logger,
	}
}

// CreateInput описывает данные для создания позиции каталога.
type CreateInput struct {
	Name   string
	Price  decimal.Decimal
	Type   domain.ProductType
	Active bool
}

// Create создаёт позицию каталога и ставит событие в outbox.
func (s *Service) Create(in CreateInput) (product *domain.Product, err error) {
	defer func() { s.metrics.RecordProductOp("create", err) }()

	price, err := domain.ApplyPricePolicy(in.Price, s.policy)
	if err != nil {
		return nil, err
	}

	product = domain.NewProduct(strings.TrimSpace(in.Name), price.RoundBank(domain.MoneyScale), in.Type, in.Active)
	if err = s.repo.Create(product); err != nil {
		s.logger.WithError(err).Error("failed to create product")
		return nil, err
	}

	s.enqueueEvent(eventProductCreated, product)
	return product, nil
}

// Get возвращает позицию каталога по идентификатору.
func (s *Service) Get(id string) (*domain.Product, error) {
	return s.repo.Get(id)
}

// List возвращает страницу каталога и общее количество записей под фильтром.
func (s *Service) List(filter domain.ProductFilter, page domain.PageRequest) ([]*domain.Product, int, error) {
	return s.repo.List(filter, page.Normalize())
}

// UpdateInput описывает полную замену полей позиции каталога.
type UpdateInput struct {
	Name   string
	Price  decimal.Decimal
	Type   domain.ProductType
	Active bool
}

// Update заменяет поля позиции целиком и ставит событие в outbox.
func (s *Service) Update(id string, in UpdateInput) (product *domain.Product, err error) {
	defer func() { s.metrics.RecordProductOp("update", err) }()

	product, err = s.repo.Get(id)
	if err != nil {
		return nil, err
	}

	if err = product.Update(strings.TrimSpace(in.Name), in.Price, in.Type, in.Active, s.policy); err != nil {
		return nil, err
	}
	if err = s.repo.Save(product); err != nil {
		s.logger.WithError(err).WithField("product_id", id).Error("failed to save product")
		return nil, err
	}

	s.enqueueEvent(eventProductUpdated, product)
	return product, nil
}

// Delete удаляет позицию каталога. Товар, связанный с заказами,
// удалить нельзя: репозиторий вернёт ErrProductLinked.
func (s *Service) Delete(id string) (err error) {
	defer func() { s.metrics.RecordProductOp("delete", err) }()

	if err = s.repo.Delete(id); err != nil {
		return err
	}

	s.enqueueDeleted(id)
	return nil
}

type productEventPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Price     string    `json:"price,omitempty"`
	Type      string    `json:"type,omitempty"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

func (s *Service) enqueueEvent(eventType string, product *domain.Product) {
	s.enqueue(eventType, product.ID(), productEventPayload{
		ID:        product.ID(),
		Name:      product.Name(),
		Price:     product.Price().StringFixed(domain.MoneyScale),
		Type:      string(product.Type()),
		Active:    product.Active(),
		UpdatedAt: product.UpdatedAt(),
	})
}

func (s *Service) enqueueDeleted(id string) {
	s.enqueue(eventProductDeleted, id, productEventPayload{ID: id})
}

// enqueue ставит событие в outbox. Ошибка постановки не откатывает
// уже выполненную операцию: запись в хранилище первична.
func (s *Service) enqueue(eventType, aggregateID string, payload productEventPayload) {
	if s.outbox == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).WithField("event", eventType).Warn("failed to encode product event")
		return
	}

	if _, err := s.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       body,
	}); err != nil {
		s.logger.WithError(err).WithField("event", eventType).Warn("failed to enqueue product event")
		return
	}

	s.metrics.RecordOutboxEvent()
}
