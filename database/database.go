package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed setup.sql
var setupSQL string

// Setup creates the tables, indexes and the booking overlap constraint if
// they do not exist yet.
func Setup(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, setupSQL); err != nil {
		return fmt.Errorf("failed to initialize tables: %w", err)
	}

	return nil
}
