package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-carousel/pkg/carousel"
)

//go:embed schema.sql
var schema string

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// txStarter is implemented by pools, connections and transactions
type txStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository implements carousel.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) carousel.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) carousel.Repository {
	return &Repository{db: pool}
}

// Migrate creates the carousel tables when they do not exist
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate carousel schema: %w", err)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "23514": // check_violation
			return fmt.Errorf("value violates constraint %s", pgErr.ConstraintName)
		case "22001": // string_data_right_truncation
			return fmt.Errorf("value too long in %s: %s", operation, pgErr.Message)
		case "22003": // numeric_value_out_of_range
			return fmt.Errorf("value out of range in %s: %s", operation, pgErr.Message)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return carousel.ErrItemNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const itemColumns = `id, owner_kind_id, owner_id, title, COALESCE(image, ''), link, text, position, created_at, updated_at`

func scanItem(row pgx.Row) (*carousel.Item, error) {
	var item carousel.Item
	err := row.Scan(
		&item.ID, &item.OwnerKindID, &item.OwnerID, &item.Title, &item.Image,
		&item.Link, &item.Text, &item.Position, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *carousel.Item) error {
	query := `
		INSERT INTO carousel_item (
			owner_kind_id, owner_id, title, image, link, text, position
		) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		item.OwnerKindID, item.OwnerID, item.Title, item.Image,
		item.Link, item.Text, item.Position,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create item", err)
	}

	return nil
}

func (r *Repository) GetItem(ctx context.Context, id int64) (*carousel.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM carousel_item WHERE id = $1`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, carousel.ErrItemNotFound
		}
		return nil, r.handlePostgresError("get item", err)
	}

	return item, nil
}

func (r *Repository) UpdateItem(ctx context.Context, item *carousel.Item) error {
	query := `
		UPDATE carousel_item SET
			title = $2, image = NULLIF($3, ''), link = $4, text = $5,
			position = $6, updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		item.ID, item.Title, item.Image, item.Link, item.Text, item.Position)
	if err != nil {
		return r.handlePostgresError("update item", err)
	}
	if tag.RowsAffected() == 0 {
		return carousel.ErrItemNotFound
	}

	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM carousel_item WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return carousel.ErrItemNotFound
	}

	return nil
}

func (r *Repository) ListItems(ctx context.Context, owner carousel.OwnerRef) ([]*carousel.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM carousel_item
		WHERE owner_kind_id = $1 AND owner_id = $2
		ORDER BY position, id`

	rows, err := r.db.Query(ctx, query, owner.KindID, owner.ID)
	if err != nil {
		return nil, r.handlePostgresError("list items", err)
	}
	defer rows.Close()

	items := []*carousel.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list items", err)
	}

	return items, nil
}

// WithinTx runs fn inside a transaction. Nested calls use a savepoint.
func (r *Repository) WithinTx(ctx context.Context, fn func(repo carousel.Repository) error) error {
	starter, ok := r.db.(txStarter)
	if !ok {
		return fn(r)
	}

	tx, err := starter.Begin(ctx)
	if err != nil {
		return r.handlePostgresError("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&Repository{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return r.handlePostgresError("commit", err)
	}
	return nil
}
