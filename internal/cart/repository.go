package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aliabbasi2000/ezelectronics/internal/catalog"
)

// DBPool matches the methods from *pgxpool.Pool that the store uses.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the storage port the cart service is built on. Reads that need no
// multi-row consistency go through the Store directly; every mutation runs
// inside a Tx.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	CurrentCart(ctx context.Context, customer string) (Cart, error)
	PaidCarts(ctx context.Context, customer string) ([]Cart, error)
	AllCarts(ctx context.Context) ([]Cart, error)
	DeleteAll(ctx context.Context) error
}

// Tx is one transactional scope over the cart rows and the catalog rows they
// reference. All mutations issued through a Tx commit or roll back together.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// UnpaidCartForUpdate locks the customer's open cart row and returns it
	// with its lines, or nil when the customer has no open cart.
	UnpaidCartForUpdate(ctx context.Context, customer string) (*Cart, error)
	// CreateUnpaidCart inserts an open cart for the customer. When a
	// concurrent transaction wins the race on the (customer, unpaid)
	// uniqueness constraint, the winner's row is locked and returned instead.
	CreateUnpaidCart(ctx context.Context, customer string) (*Cart, error)

	Line(ctx context.Context, cartID int64, model string) (*Line, error)
	InsertLine(ctx context.Context, cartID int64, l Line) error
	IncrementLine(ctx context.Context, cartID int64, model string) error
	DecrementLine(ctx context.Context, cartID int64, model string) error
	DeleteLine(ctx context.Context, cartID int64, model string) error
	DeleteLines(ctx context.Context, cartID int64) error

	AddToTotal(ctx context.Context, cartID int64, delta float64) error
	SetTotal(ctx context.Context, cartID int64, total float64) error
	MarkPaid(ctx context.Context, cartID int64, paymentDate string) error

	// Catalog surface, visible within this transaction.
	Product(ctx context.Context, model string) (catalog.Product, error)
	ProductForUpdate(ctx context.Context, model string) (catalog.Product, error)
	DecrementStock(ctx context.Context, model string, qty int) error
}

type PostgresStore struct {
	db DBPool
}

func NewPostgresStore(db DBPool) *PostgresStore {
	return &PostgresStore{db: db}
}

const cartColumns = `id, customer, paid, to_char(payment_date, 'YYYY-MM-DD'), total`

func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &postgresTx{tx: tx, products: catalog.NewPostgresRepository(tx)}, nil
}

// CurrentCart returns the customer's open cart, or an empty cart value when
// none exists in storage.
func (s *PostgresStore) CurrentCart(ctx context.Context, customer string) (Cart, error) {
	var c Cart
	row := s.db.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE customer=$1 AND NOT paid`, customer)
	if err := row.Scan(&c.ID, &c.Customer, &c.Paid, &c.PaymentDate, &c.Total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return emptyCart(customer), nil
		}
		return Cart{}, err
	}

	lines, err := queryLines(ctx, s.db, c.ID)
	if err != nil {
		return Cart{}, err
	}
	c.Products = lines
	return c, nil
}

func (s *PostgresStore) PaidCarts(ctx context.Context, customer string) ([]Cart, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+cartColumns+` FROM carts
		WHERE customer=$1 AND paid
		ORDER BY payment_date, id
	`, customer)
	if err != nil {
		return nil, err
	}
	carts, err := scanCarts(rows)
	if err != nil {
		return nil, err
	}
	return s.attachLines(ctx, carts)
}

func (s *PostgresStore) AllCarts(ctx context.Context) ([]Cart, error) {
	rows, err := s.db.Query(ctx, `SELECT ` + cartColumns + ` FROM carts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	carts, err := scanCarts(rows)
	if err != nil {
		return nil, err
	}
	return s.attachLines(ctx, carts)
}

// DeleteAll wipes every cart; lines go with them via ON DELETE CASCADE.
func (s *PostgresStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DELETE FROM carts`)
	return err
}

func (s *PostgresStore) attachLines(ctx context.Context, carts []Cart) ([]Cart, error) {
	if len(carts) == 0 {
		return []Cart{}, nil
	}

	ids := make([]int64, 0, len(carts))
	byID := make(map[int64]*Cart, len(carts))
	for i := range carts {
		carts[i].Products = []Line{}
		ids = append(ids, carts[i].ID)
		byID[carts[i].ID] = &carts[i]
	}

	rows, err := s.db.Query(ctx, `
		SELECT cart_id, model, quantity, category, unit_price
		FROM cart_lines WHERE cart_id = ANY($1) ORDER BY cart_id, model
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var cartID int64
		var l Line
		if err := rows.Scan(&cartID, &l.Model, &l.Quantity, &l.Category, &l.Price); err != nil {
			return nil, err
		}
		if c, ok := byID[cartID]; ok {
			c.Products = append(c.Products, l)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return carts, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, db querier, cartID int64) ([]Line, error) {
	rows, err := db.Query(ctx, `
		SELECT model, quantity, category, unit_price
		FROM cart_lines WHERE cart_id=$1 ORDER BY model
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.Model, &l.Quantity, &l.Category, &l.Price); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func scanCarts(rows pgx.Rows) ([]Cart, error) {
	defer rows.Close()

	var carts []Cart
	for rows.Next() {
		var c Cart
		if err := rows.Scan(&c.ID, &c.Customer, &c.Paid, &c.PaymentDate, &c.Total); err != nil {
			return nil, err
		}
		carts = append(carts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return carts, nil
}

type postgresTx struct {
	tx       pgx.Tx
	products *catalog.PostgresRepository
}

func (t *postgresTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *postgresTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

func (t *postgresTx) UnpaidCartForUpdate(ctx context.Context, customer string) (*Cart, error) {
	var c Cart
	row := t.tx.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE customer=$1 AND NOT paid FOR UPDATE`, customer)
	if err := row.Scan(&c.ID, &c.Customer, &c.Paid, &c.PaymentDate, &c.Total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	lines, err := queryLines(ctx, t.tx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Products = lines
	return &c, nil
}

func (t *postgresTx) CreateUnpaidCart(ctx context.Context, customer string) (*Cart, error) {
	for attempt := 0; attempt < 3; attempt++ {
		var id int64
		row := t.tx.QueryRow(ctx, `
			INSERT INTO carts (customer, paid, total) VALUES ($1, FALSE, 0)
			ON CONFLICT (customer) WHERE NOT paid DO NOTHING
			RETURNING id
		`, customer)
		err := row.Scan(&id)
		if err == nil {
			c := emptyCart(customer)
			c.ID = id
			return &c, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}

		// Lost the race: another transaction created the cart. Lock and
		// use it. The winner's cart may already be paid by the time we
		// look, in which case the insert is retried.
		c, err := t.UnpaidCartForUpdate(ctx, customer)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}
	}
	return nil, fmt.Errorf("create cart for %s: open cart kept vanishing", customer)
}

func (t *postgresTx) Line(ctx context.Context, cartID int64, model string) (*Line, error) {
	var l Line
	row := t.tx.QueryRow(ctx, `
		SELECT model, quantity, category, unit_price
		FROM cart_lines WHERE cart_id=$1 AND model=$2
	`, cartID, model)
	if err := row.Scan(&l.Model, &l.Quantity, &l.Category, &l.Price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (t *postgresTx) InsertLine(ctx context.Context, cartID int64, l Line) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO cart_lines (cart_id, model, quantity, category, unit_price)
		VALUES ($1, $2, $3, $4, $5)
	`, cartID, l.Model, l.Quantity, l.Category, l.Price)
	return err
}

func (t *postgresTx) IncrementLine(ctx context.Context, cartID int64, model string) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE cart_lines SET quantity = quantity + 1 WHERE cart_id=$1 AND model=$2
	`, cartID, model)
	return err
}

func (t *postgresTx) DecrementLine(ctx context.Context, cartID int64, model string) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE cart_lines SET quantity = quantity - 1 WHERE cart_id=$1 AND model=$2
	`, cartID, model)
	return err
}

func (t *postgresTx) DeleteLine(ctx context.Context, cartID int64, model string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id=$1 AND model=$2`, cartID, model)
	return err
}

func (t *postgresTx) DeleteLines(ctx context.Context, cartID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id=$1`, cartID)
	return err
}

func (t *postgresTx) AddToTotal(ctx context.Context, cartID int64, delta float64) error {
	_, err := t.tx.Exec(ctx, `UPDATE carts SET total = total + $2 WHERE id=$1`, cartID, delta)
	return err
}

func (t *postgresTx) SetTotal(ctx context.Context, cartID int64, total float64) error {
	_, err := t.tx.Exec(ctx, `UPDATE carts SET total = $2 WHERE id=$1`, cartID, total)
	return err
}

func (t *postgresTx) MarkPaid(ctx context.Context, cartID int64, paymentDate string) error {
	_, err := t.tx.Exec(ctx, `UPDATE carts SET paid = TRUE, payment_date = $2::date WHERE id=$1`, cartID, paymentDate)
	return err
}

func (t *postgresTx) Product(ctx context.Context, model string) (catalog.Product, error) {
	return t.products.GetByModel(ctx, model)
}

func (t *postgresTx) ProductForUpdate(ctx context.Context, model string) (catalog.Product, error) {
	return t.products.GetByModelForUpdate(ctx, model)
}

func (t *postgresTx) DecrementStock(ctx context.Context, model string, qty int) error {
	_, err := t.products.DecrementQuantity(ctx, model, qty)
	return err
}
