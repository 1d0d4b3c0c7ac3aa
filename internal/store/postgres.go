package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lemontycoon/internal/db"
	"lemontycoon/internal/game"
)

type PostgresStore struct {
	pool *pgxpool.Pool
	cat  *game.Catalog
}

func OpenPostgres(ctx context.Context, databaseURL string, cat *game.Catalog) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, pool, migrationFS, "migrations/postgres"); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool, cat: cat}, nil
}

func (s *PostgresStore) Load(ctx context.Context) (*game.State, bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value FROM game_state`)
	if err != nil {
		return nil, false, fmt.Errorf("read game_state: %w", err)
	}
	values := map[string]string{}
	var k, v string
	_, err = pgx.ForEachRow(rows, []any{&k, &v}, func() error {
		values[k] = v
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("scan game_state: %w", err)
	}
	if len(values) == 0 {
		return nil, false, nil
	}
	return DecodeRecord(values, s.cat), true, nil
}

// Save upserts every key in a single transaction; keys the record no longer
// carries are removed.
func (s *PostgresStore) Save(ctx context.Context, st *game.State) error {
	fields := EncodeRecord(st, s.cat)
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
		batch.Queue(`
			INSERT INTO game_state (key, value, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		`, f.Key, f.Value)
	}
	batch.Queue(`DELETE FROM game_state WHERE NOT (key = ANY($1))`, keys)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write game_state: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
