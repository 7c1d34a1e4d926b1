package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrAlreadyExists     = errors.New("product model already registered")
	ErrOutOfStock        = errors.New("product is out of stock")
	ErrInsufficientStock = errors.New("not enough units in stock")
)

// Querier matches the methods shared by *pgxpool.Pool and pgx.Tx that the
// repository uses. Binding a repository to a pgx.Tx (see WithTx) lets other
// components read and decrement stock inside their own transaction.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	Insert(ctx context.Context, p Product) error
	GetByModel(ctx context.Context, model string) (Product, error)
	GetByModelForUpdate(ctx context.Context, model string) (Product, error)
	AddQuantity(ctx context.Context, model string, delta int) (int, error)
	DecrementQuantity(ctx context.Context, model string, qty int) (int, error)
	List(ctx context.Context, availableOnly bool) ([]Product, error)
	ListByCategory(ctx context.Context, category Category, availableOnly bool) ([]Product, error)
	ListByModel(ctx context.Context, model string, availableOnly bool) ([]Product, error)
	Delete(ctx context.Context, model string) error
	DeleteAll(ctx context.Context) error
}

type PostgresRepository struct {
	db Querier
}

func NewPostgresRepository(db Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *PostgresRepository) WithTx(tx pgx.Tx) *PostgresRepository {
	return &PostgresRepository{db: tx}
}

const productColumns = `model, category, to_char(arrival_date, 'YYYY-MM-DD'), selling_price, quantity, details`

func (r *PostgresRepository) Insert(ctx context.Context, p Product) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO products (model, category, arrival_date, selling_price, quantity, details)
		VALUES ($1, $2, $3::date, $4, $5, $6)
	`, p.Model, p.Category, p.ArrivalDate, p.SellingPrice, p.Quantity, p.Details)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (r *PostgresRepository) GetByModel(ctx context.Context, model string) (Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE model=$1`, model)
	return scanProduct(row)
}

// GetByModelForUpdate locks the product row for the remainder of the calling
// transaction. Callers must hold a pgx.Tx-bound repository.
func (r *PostgresRepository) GetByModelForUpdate(ctx context.Context, model string) (Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE model=$1 FOR UPDATE`, model)
	return scanProduct(row)
}

// AddQuantity atomically increases stock and returns the new quantity.
func (r *PostgresRepository) AddQuantity(ctx context.Context, model string, delta int) (int, error) {
	var quantity int
	row := r.db.QueryRow(ctx, `
		UPDATE products SET quantity = quantity + $2 WHERE model=$1 RETURNING quantity
	`, model, delta)
	if err := row.Scan(&quantity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return quantity, nil
}

// DecrementQuantity atomically decreases stock, refusing to go below zero,
// and returns the new quantity. ErrInsufficientStock is returned when the
// product exists but holds fewer units than requested.
func (r *PostgresRepository) DecrementQuantity(ctx context.Context, model string, qty int) (int, error) {
	var quantity int
	row := r.db.QueryRow(ctx, `
		UPDATE products SET quantity = quantity - $2
		WHERE model=$1 AND quantity >= $2
		RETURNING quantity
	`, model, qty)
	if err := row.Scan(&quantity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByModel(ctx, model); getErr != nil {
				return 0, getErr
			}
			return 0, ErrInsufficientStock
		}
		return 0, err
	}
	return quantity, nil
}

func (r *PostgresRepository) List(ctx context.Context, availableOnly bool) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY model`
	if availableOnly {
		query = `SELECT ` + productColumns + ` FROM products WHERE quantity > 0 ORDER BY model`
	}
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *PostgresRepository) ListByCategory(ctx context.Context, category Category, availableOnly bool) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE category=$1 ORDER BY model`
	if availableOnly {
		query = `SELECT ` + productColumns + ` FROM products WHERE category=$1 AND quantity > 0 ORDER BY model`
	}
	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *PostgresRepository) ListByModel(ctx context.Context, model string, availableOnly bool) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE model=$1`
	if availableOnly {
		query = `SELECT ` + productColumns + ` FROM products WHERE model=$1 AND quantity > 0`
	}
	rows, err := r.db.Query(ctx, query, model)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *PostgresRepository) Delete(ctx context.Context, model string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE model=$1`, model)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM products`)
	return err
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.Model, &p.Category, &p.ArrivalDate, &p.SellingPrice, &p.Quantity, &p.Details)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.Model, &p.Category, &p.ArrivalDate, &p.SellingPrice, &p.Quantity, &p.Details); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
