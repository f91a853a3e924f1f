package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	apperrors "github.com/sbilibin2017/gw-users/internal/errors"
	"github.com/sbilibin2017/gw-users/internal/logger"
	"github.com/sbilibin2017/gw-users/internal/models"
)

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

const createUserTableQuery = `
	CREATE TABLE IF NOT EXISTS "User" (
		id   TEXT PRIMARY KEY,
		name TEXT
	)
`

const (
	selectUsersQuery = `
		SELECT id, name
		FROM "User"
	`
	selectUserByIDQuery = `
		SELECT id, name
		FROM "User"
		WHERE id = $1
		LIMIT 1
	`
	insertUserQuery = `
		INSERT INTO "User" (id, name)
		VALUES ($1, $2)
	`
	updateUserNameQuery = `
		UPDATE "User"
		SET name = $1
		WHERE id = $2
	`
	deleteUserQuery = `
		DELETE FROM "User"
		WHERE id = $1
	`
)

// logQuery logs a statement on a single line together with its outcome.
func logQuery(query string, args []any, result any, err error) {
	logger.Log.Infow(
		"query executed",
		"query", strings.Join(strings.Fields(query), " "),
		"args", args,
		"result", result,
		"error", err,
	)
}

// EnsureSchema creates the "User" table if it does not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, createUserTableQuery)
	logQuery(createUserTableQuery, nil, nil, err)
	if err != nil {
		return fmt.Errorf("create user table: %w", err)
	}
	return nil
}

type UserReadRepository struct {
	db *sqlx.DB
}

func NewUserReadRepository(db *sqlx.DB) *UserReadRepository {
	return &UserReadRepository{db: db}
}

// List returns every row in storage order. An empty table yields an empty, non-nil slice.
func (r *UserReadRepository) List(ctx context.Context) ([]models.UserDB, error) {
	users := make([]models.UserDB, 0)
	err := r.db.SelectContext(ctx, &users, selectUsersQuery)

	logQuery(selectUsersQuery, nil, len(users), err)

	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetByID returns the row with the given id, or nil when there is none.
func (r *UserReadRepository) GetByID(ctx context.Context, id string) (*models.UserDB, error) {
	var user models.UserDB
	err := r.db.GetContext(ctx, &user, selectUserByIDQuery, id)

	logQuery(selectUserByIDQuery, []any{id}, user, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

type UserWriteRepository struct {
	db *sqlx.DB
}

func NewUserWriteRepository(db *sqlx.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

// Save inserts a new row. A duplicate id yields apperrors.ErrUserAlreadyExists.
func (r *UserWriteRepository) Save(ctx context.Context, id, name string) error {
	args := []any{id, name}
	res, err := r.db.ExecContext(ctx, insertUserQuery, args...)

	logQuery(insertUserQuery, args, rowsAffected(res), err)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("save user %q: %w", id, apperrors.ErrUserAlreadyExists)
	}
	return err
}

// UpdateName sets the name of the row with the given id.
// It reports whether a row matched.
func (r *UserWriteRepository) UpdateName(ctx context.Context, id, name string) (bool, error) {
	args := []any{name, id}
	res, err := r.db.ExecContext(ctx, updateUserNameQuery, args...)
	affected := rowsAffected(res)

	logQuery(updateUserNameQuery, args, affected, err)

	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Delete removes the row with the given id. It reports whether a row matched.
func (r *UserWriteRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteUserQuery, id)
	affected := rowsAffected(res)

	logQuery(deleteUserQuery, []any{id}, affected, err)

	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func rowsAffected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, _ := res.RowsAffected()
	return n
}
