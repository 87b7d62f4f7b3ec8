package app

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/storage/memory"
	"github.com/vladislavdragonenkov/catalog/internal/storage/postgres"
)

// Dependencies содержит хранилища приложения.
// Пустой DSN переключает приложение на in-memory реализацию: этого
// достаточно для локальной разработки и тестов.
type Dependencies struct {
	ProductRepo domain.ProductRepository
	OrderRepo   domain.OrderRepository
	OutboxRepo  domain.OutboxRepository
	IdemRepo    domain.IdempotencyRepository

	Store  *postgres.Store
	Logger *log.Entry
}

// NewDependencies создаёт зависимости поверх PostgreSQL или памяти.
func NewDependencies(ctx context.Context, postgresDSN string, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	if postgresDSN == "" {
		logger.Info("postgres dsn is empty, using in-memory storage")
		store := memory.NewStore()
		return &Dependencies{
			ProductRepo: store,
			OrderRepo:   memory.NewOrderRepository(store),
			OutboxRepo:  memory.NewOutboxRepository(),
			IdemRepo:    memory.NewIdempotencyRepository(),
			Logger:      logger,
		}, nil
	}

	store, err := postgres.Open(ctx, postgresDSN)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Info("postgres storage initialized")
	return &Dependencies{
		ProductRepo: postgres.NewProductRepository(store),
		OrderRepo:   postgres.NewOrderRepository(store),
		OutboxRepo:  postgres.NewOutboxRepository(store),
		IdemRepo:    postgres.NewIdempotencyRepository(store),
		Store:       store,
		Logger:      logger,
	}, nil
}

// Close освобождает ресурсы хранилища.
func (d *Dependencies) Close() error {
	if d == nil || d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
