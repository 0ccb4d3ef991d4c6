package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/tendant/simple-carousel/pkg/carousel"
)

// Querier is the subset of pgx used by TableAccessor
type Querier interface {
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// TableAccessor looks owners up in a table with a bigint id column
type TableAccessor struct {
	db    Querier
	query string
}

// NewTableAccessor builds an accessor for table. labelColumn may be empty,
// in which case the id itself is the label.
func NewTableAccessor(db Querier, table, labelColumn string) (*TableAccessor, error) {
	if table == "" {
		return nil, errors.New("table is required")
	}

	tableIdent := pgx.Identifier(strings.Split(table, ".")).Sanitize()
	label := "id::text"
	if labelColumn != "" {
		label = pgx.Identifier{labelColumn}.Sanitize() + "::text"
	}

	return &TableAccessor{
		db:    db,
		query: fmt.Sprintf("SELECT COALESCE(%s, '') FROM %s WHERE id = $1", label, tableIdent),
	}, nil
}

// Lookup returns the label of row id
func (a *TableAccessor) Lookup(ctx context.Context, id int64) (string, error) {
	var label string
	err := a.db.QueryRow(ctx, a.query, id).Scan(&label)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", carousel.ErrOwnerNotFound
		}
		return "", fmt.Errorf("lookup owner %d: %w", id, err)
	}
	return label, nil
}
