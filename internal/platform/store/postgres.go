package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores records in the saves table.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := p.db.QueryRow(ctx, `SELECT data FROM saves WHERE key = $1`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query save %s: %w", key, err)
	}
	return data, nil
}

func (p *Postgres) Save(ctx context.Context, key string, value []byte) error {
	_, err := p.db.Exec(ctx, `
INSERT INTO saves (key, data, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
`, key, value)
	if err != nil {
		return fmt.Errorf("upsert save %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.db.Exec(ctx, `DELETE FROM saves WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete save %s: %w", key, err)
	}
	return nil
}
