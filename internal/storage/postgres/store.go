package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"neuraswap/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS client_activity (
	chain_id      BIGINT      NOT NULL,
	tx_hash       TEXT        NOT NULL,
	kind          TEXT        NOT NULL,
	account       TEXT        NOT NULL,
	block_number  BIGINT      NOT NULL,
	token         TEXT,
	amount_in     NUMERIC,
	amount_out    NUMERIC,
	min_out       NUMERIC,
	amount_house  NUMERIC,
	amount_bicy   NUMERIC,
	recorded_at   TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, tx_hash, kind)
);
CREATE INDEX IF NOT EXISTS client_activity_account_idx ON client_activity (account, recorded_at DESC);
`

// Store persists the activity journal in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the activity table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Append inserts activity records; replays of the same transaction are ignored.
func (s *Store) Append(ctx context.Context, records []model.ActivityRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		recordedAt, err := time.Parse(time.RFC3339Nano, r.RecordedAt)
		if err != nil {
			return fmt.Errorf("parse recorded_at %q: %w", r.RecordedAt, err)
		}
		batch.Queue(`
			INSERT INTO client_activity (
				chain_id, tx_hash, kind, account, block_number, token,
				amount_in, amount_out, min_out, amount_house, amount_bicy, recorded_at
			) VALUES ($1, $2, $3, $4, $5, $6,
				$7::text::numeric, $8::text::numeric, $9::text::numeric, $10::text::numeric, $11::text::numeric, $12)
			ON CONFLICT (chain_id, tx_hash, kind) DO NOTHING
		`,
			int64(r.ChainID),
			r.TxHash,
			r.Kind,
			r.Account,
			int64(r.BlockNumber),
			nullable(r.Token),
			nullable(r.AmountIn),
			nullable(r.AmountOut),
			nullable(r.MinOut),
			nullable(r.AmountHouse),
			nullable(r.AmountBicy),
			recordedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns up to limit records, newest first. An empty account matches all.
func (s *Store) Recent(ctx context.Context, account string, limit int) ([]model.ActivityRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT chain_id, tx_hash, kind, account, block_number,
			COALESCE(token, ''), COALESCE(amount_in::text, ''), COALESCE(amount_out::text, ''),
			COALESCE(min_out::text, ''), COALESCE(amount_house::text, ''), COALESCE(amount_bicy::text, ''),
			recorded_at
		FROM client_activity
		WHERE $1 = '' OR lower(account) = lower($1)
		ORDER BY recorded_at DESC
		LIMIT $2
	`, account, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ActivityRecord
	for rows.Next() {
		var (
			r          model.ActivityRecord
			chainID    int64
			block      int64
			recordedAt time.Time
		)
		if err := rows.Scan(&chainID, &r.TxHash, &r.Kind, &r.Account, &block,
			&r.Token, &r.AmountIn, &r.AmountOut, &r.MinOut, &r.AmountHouse, &r.AmountBicy, &recordedAt); err != nil {
			return nil, err
		}
		r.ChainID = uint64(chainID)
		r.BlockNumber = uint64(block)
		r.RecordedAt = recordedAt.UTC().Format(time.RFC3339Nano)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
