package review

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound      = errors.New("review not found")
	ErrAlreadyExists = errors.New("review already exists for this product")
)

// Querier matches the methods shared by *pgxpool.Pool and pgx.Tx that the
// repository uses.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	Insert(ctx context.Context, r Review) error
	ByModel(ctx context.Context, model string) ([]Review, error)
	Delete(ctx context.Context, model, username string) error
	DeleteByModel(ctx context.Context, model string) error
	DeleteAll(ctx context.Context) error
}

type PostgresRepository struct {
	db Querier
}

func NewPostgresRepository(db Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, rv Review) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO reviews (model, username, score, review_date, comment)
		VALUES ($1, $2, $3, $4::date, $5)
	`, rv.Model, rv.User, rv.Score, rv.Date, rv.Comment)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (r *PostgresRepository) ByModel(ctx context.Context, model string) ([]Review, error) {
	rows, err := r.db.Query(ctx, `
		SELECT model, username, score, to_char(review_date, 'YYYY-MM-DD'), comment
		FROM reviews WHERE model=$1 ORDER BY review_date, username
	`, model)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.Model, &rv.User, &rv.Score, &rv.Date, &rv.Comment); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, model, username string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE model=$1 AND username=$2`, model, username)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteByModel(ctx context.Context, model string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE model=$1`, model)
	return err
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM reviews`)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
