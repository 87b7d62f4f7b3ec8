package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

const productColumns = `id, name, price, type, active, created_at, updated_at`

func (r *productRepository) Create(product *domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, type, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		product.ID(), product.Name(), product.Price(), string(product.Type()),
		product.Active(), product.CreatedAt(), product.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r *productRepository) Get(id string) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	product, err := scanProduct(r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("select product: %w", err)
	}

	return product, nil
}

func (r *productRepository) GetByIDs(ids []string) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return []*domain.Product{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1)
	`, idsToArray(ids))
	if err != nil {
		return nil, fmt.Errorf("select products by ids: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.Product, 0, len(ids))
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		result = append(result, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return result, nil
}

func (r *productRepository) List(filter domain.ProductFilter, page domain.PageRequest) ([]*domain.Product, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		conditions []string
		args       []any
	)
	if name := strings.TrimSpace(filter.Name); name != "" {
		args = append(args, "%"+name+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, page.Limit(), page.Offset())
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM products%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, productColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	total := 0
	result := make([]*domain.Product, 0, page.Limit())
	for rows.Next() {
		var (
			id, name, ptypeRaw   string
			price                decimal.Decimal
			active               bool
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&id, &name, &price, &ptypeRaw, &active, &createdAt, &updatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		result = append(result, domain.RestoreProduct(id, createdAt, updatedAt, name, price, domain.ProductType(ptypeRaw), active))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	// Страница за пределами выборки не содержит строк, поэтому окно COUNT(*)
	// не читалось: добираем общее количество отдельным запросом.
	if len(result) == 0 {
		countArgs := args[:len(args)-2]
		if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where, countArgs...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count products: %w", err)
		}
	}

	return result, total, nil
}

func (r *productRepository) Save(product *domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1,
		    price = $2,
		    type = $3,
		    active = $4,
		    updated_at = $5
		WHERE id = $6
	`,
		product.Name(), product.Price(), string(product.Type()),
		product.Active(), product.UpdatedAt(), product.ID(),
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// Delete опирается на FK RESTRICT из order_items: товар, на который
// ссылается хотя бы один заказ, база удалить не даст.
func (r *productRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrProductLinked
		}
		return fmt.Errorf("delete product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		id, name, ptypeRaw   string
		price                decimal.Decimal
		active               bool
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &name, &price, &ptypeRaw, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return domain.RestoreProduct(id, createdAt, updatedAt, name, price, domain.ProductType(ptypeRaw), active), nil
}

// idsToArray приводит срез к формату PostgreSQL-массива для ANY($1).
func idsToArray(ids []string) string {
	escaped := make([]string, 0, len(ids))
	for _, id := range ids {
		escaped = append(escaped, strings.ReplaceAll(id, `"`, ``))
	}
	return "{" + strings.Join(escaped, ",") + "}"
}

var _ domain.ProductRepository = (*productRepository)(nil)
