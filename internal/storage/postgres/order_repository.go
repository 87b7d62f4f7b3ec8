package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(order *domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, status, discount, total, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		order.ID(), string(order.Status()), order.Discount(),
		order.Total(), order.CreatedAt(), order.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert order: %w", err)
	}

	if err = insertItems(ctx, tx, order); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(id string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		status               string
		discount             int
		total                decimal.Decimal
		createdAt, updatedAt time.Time
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT status, discount, total, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&status, &discount, &total, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}

	return domain.RestoreOrder(id, createdAt, updatedAt, domain.OrderStatus(status), items, discount, &total)
}

func (r *orderRepository) List(filter domain.OrderFilter, page domain.PageRequest) ([]*domain.Order, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `
		SELECT id, status, discount, total, created_at, updated_at, COUNT(*) OVER() AS total_rows
		FROM orders
	`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += fmt.Sprintf(`
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, len(args)+1, len(args)+2)
	args = append(args, page.Limit(), page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	totalRows := 0
	result := make([]*domain.Order, 0, page.Limit())
	for rows.Next() {
		var (
			id, status           string
			discount             int
			total                decimal.Decimal
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&id, &status, &discount, &total, &createdAt, &updatedAt, &totalRows); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}

		items, err := r.loadItems(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		order, err := domain.RestoreOrder(id, createdAt, updatedAt, domain.OrderStatus(status), items, discount, &total)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	if len(result) == 0 {
		countQuery := `SELECT COUNT(*) FROM orders`
		countArgs := []any{}
		if filter.Status != "" {
			countQuery += ` WHERE status = $1`
			countArgs = append(countArgs, string(filter.Status))
		}
		if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&totalRows); err != nil {
			return nil, 0, fmt.Errorf("count orders: %w", err)
		}
	}

	return result, totalRows, nil
}

// Save перезаписывает заказ целиком: шапку обновляет, набор позиций заменяет.
func (r *orderRepository) Save(order *domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    discount = $2,
		    total = $3,
		    updated_at = $4
		WHERE id = $5
	`,
		string(order.Status()), order.Discount(), order.Total(),
		order.UpdatedAt(), order.ID(),
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = domain.ErrOrderNotFound
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID()); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if err = insertItems(ctx, tx, order); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save order: %w", err)
	}

	return nil
}

// Delete удаляет заказ, позиции уходят по ON DELETE CASCADE.
func (r *orderRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

func insertItems(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	for _, item := range order.Items() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, amount, created_at)
			VALUES ($1,$2,$3,$4,$5)
		`,
			item.ID(), order.ID(), item.Product().ID(), item.Amount(), item.CreatedAt(),
		); err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrProductNotFound
			}
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

// loadItems собирает позиции заказа вместе с актуальным состоянием товаров:
// заказ всегда пересобирается против текущего каталога.
func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.amount, i.created_at,
		       p.id, p.name, p.price, p.type, p.active, p.created_at, p.updated_at
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.created_at ASC, i.id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var (
			itemID                 string
			amount                 int64
			itemCreatedAt          time.Time
			productID, name, ptype string
			price                  decimal.Decimal
			active                 bool
			pCreatedAt, pUpdatedAt time.Time
		)
		if err := rows.Scan(
			&itemID, &amount, &itemCreatedAt,
			&productID, &name, &price, &ptype, &active, &pCreatedAt, &pUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}

		product := domain.RestoreProduct(productID, pCreatedAt, pUpdatedAt, name, price, domain.ProductType(ptype), active)
		items = append(items, domain.RestoreOrderItem(itemID, itemCreatedAt, product, amount))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
