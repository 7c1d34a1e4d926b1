package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("username already taken")
)

// Querier matches the methods shared by *pgxpool.Pool and pgx.Tx that the
// repository uses. This allows mocking the database in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	Create(ctx context.Context, u User, passwordHash string) error
	GetByUsername(ctx context.Context, username string) (User, error)
	Credentials(ctx context.Context, username string) (string, Role, error)
	List(ctx context.Context) ([]User, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
	UpdateInfo(ctx context.Context, username, name, surname, address, birthdate string) (User, error)
	Delete(ctx context.Context, username string) error
	DeleteNonAdmins(ctx context.Context) error
}

type PostgresRepository struct {
	db Querier
}

func NewPostgresRepository(db Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `username, name, surname, role, address, COALESCE(to_char(birthdate, 'YYYY-MM-DD'), '')`

func (r *PostgresRepository) Create(ctx context.Context, u User, passwordHash string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (username, name, surname, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
	`, u.Username, u.Name, u.Surname, passwordHash, u.Role)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	var u User
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
	if err := row.Scan(&u.Username, &u.Name, &u.Surname, &u.Role, &u.Address, &u.Birthdate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// Credentials returns the stored password hash and role for a username.
func (r *PostgresRepository) Credentials(ctx context.Context, username string) (string, Role, error) {
	var hash string
	var role Role
	row := r.db.QueryRow(ctx, `SELECT password_hash, role FROM users WHERE username=$1`, username)
	if err := row.Scan(&hash, &role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", ErrNotFound
		}
		return "", "", err
	}
	return hash, role, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *PostgresRepository) ListByRole(ctx context.Context, role Role) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role=$1 ORDER BY username`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *PostgresRepository) UpdateInfo(ctx context.Context, username, name, surname, address, birthdate string) (User, error) {
	var u User
	row := r.db.QueryRow(ctx, `
		UPDATE users
		SET name=$2, surname=$3, address=$4, birthdate=NULLIF($5, '')::date
		WHERE username=$1
		RETURNING `+userColumns,
		username, name, surname, address, birthdate)
	if err := row.Scan(&u.Username, &u.Name, &u.Surname, &u.Role, &u.Address, &u.Birthdate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, username string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE username=$1`, username)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteNonAdmins(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE role <> $1`, RoleAdmin)
	return err
}

func scanUsers(rows pgx.Rows) ([]User, error) {
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Username, &u.Name, &u.Surname, &u.Role, &u.Address, &u.Birthdate); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
