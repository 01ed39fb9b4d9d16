package schema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PgxExecutor runs statements over a direct Postgres connection.
type PgxExecutor struct {
	conn *pgx.Conn
}

func NewPgxExecutor(ctx context.Context, dsn string) (*PgxExecutor, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &PgxExecutor{conn: conn}, nil
}

func (e *PgxExecutor) Ping(ctx context.Context) error {
	if err := e.conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

func (e *PgxExecutor) Exec(ctx context.Context, statement string) error {
	if _, err := e.conn.Exec(ctx, statement); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

func (e *PgxExecutor) Close(ctx context.Context) error {
	return e.conn.Close(ctx)
}
