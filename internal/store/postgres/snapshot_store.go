package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ckartal/snipebot/internal/domain"
)

// SnapshotStore persists tracker snapshots in PostgreSQL. The open and
// failed-sale tables mirror in-memory state and are replaced wholesale on
// every save; trade history is append-only and deduplicated by record ID.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a SnapshotStore backed by the given client.
func NewSnapshotStore(c *Client) *SnapshotStore {
	return &SnapshotStore{pool: c.Pool()}
}

// Save writes the snapshot in a single transaction.
func (s *SnapshotStore) Save(ctx context.Context, snap domain.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	limits, err := json.Marshal(snap.Limits)
	if err != nil {
		return fmt.Errorf("postgres: marshal limits: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO tracker_config (id, limits, taken_at, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET limits = EXCLUDED.limits,
		    taken_at = EXCLUDED.taken_at,
		    updated_at = NOW()`,
		limits, snap.TakenAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save config: %w", err)
	}

	for _, rec := range snap.History {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("postgres: marshal trade %s: %w", rec.ID, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO trade_history (id, mint, symbol, reason, exit_time, record)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING`,
			rec.ID, rec.Mint, rec.Symbol, string(rec.Reason), rec.ExitTime, payload,
		)
		if err != nil {
			return fmt.Errorf("postgres: save trade %s: %w", rec.ID, err)
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM open_positions"); err != nil {
		return fmt.Errorf("postgres: clear open positions: %w", err)
	}
	for _, entry := range snap.Open {
		payload, err := json.Marshal(entry.Position)
		if err != nil {
			return fmt.Errorf("postgres: marshal position %s: %w", entry.Mint, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO open_positions (mint, position, updated_at)
			VALUES ($1, $2, NOW())`,
			entry.Mint, payload,
		)
		if err != nil {
			return fmt.Errorf("postgres: save position %s: %w", entry.Mint, err)
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM failed_sales"); err != nil {
		return fmt.Errorf("postgres: clear failed sales: %w", err)
	}
	for _, fs := range snap.FailedSales {
		payload, err := json.Marshal(fs)
		if err != nil {
			return fmt.Errorf("postgres: marshal failed sale %s: %w", fs.Mint, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO failed_sales (mint, entry, updated_at)
			VALUES ($1, $2, NOW())`,
			fs.Mint, payload,
		)
		if err != nil {
			return fmt.Errorf("postgres: save failed sale %s: %w", fs.Mint, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit snapshot: %w", err)
	}
	return nil
}

// Load reassembles the latest snapshot. It returns domain.ErrNotFound when
// no snapshot has ever been saved.
func (s *SnapshotStore) Load(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot

	var limits []byte
	err := s.pool.QueryRow(ctx,
		"SELECT limits, taken_at FROM tracker_config WHERE id = 1",
	).Scan(&limits, &snap.TakenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("postgres: load config: %w", err)
	}
	if err := json.Unmarshal(limits, &snap.Limits); err != nil {
		return domain.Snapshot{}, fmt.Errorf("postgres: unmarshal limits: %w", err)
	}

	snap.History, err = s.loadHistory(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap.Open, err = s.loadOpen(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap.FailedSales, err = s.loadFailedSales(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}

	return snap, nil
}

func (s *SnapshotStore) loadHistory(ctx context.Context) ([]domain.TradeRecord, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT record FROM trade_history ORDER BY exit_time ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: load history: %w", err)
	}
	defer rows.Close()

	var history []domain.TradeRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("postgres: scan trade: %w", err)
		}
		var rec domain.TradeRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal trade: %w", err)
		}
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate history: %w", err)
	}
	return history, nil
}

func (s *SnapshotStore) loadOpen(ctx context.Context) ([]domain.PositionEntry, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT mint, position FROM open_positions",
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: load open positions: %w", err)
	}
	defer rows.Close()

	var open []domain.PositionEntry
	for rows.Next() {
		var (
			mint    string
			payload []byte
		)
		if err := rows.Scan(&mint, &payload); err != nil {
			return nil, fmt.Errorf("postgres: scan position: %w", err)
		}
		var pos domain.Position
		if err := json.Unmarshal(payload, &pos); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal position %s: %w", mint, err)
		}
		open = append(open, domain.PositionEntry{Mint: mint, Position: pos})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate open positions: %w", err)
	}
	return open, nil
}

func (s *SnapshotStore) loadFailedSales(ctx context.Context) ([]domain.FailedSale, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT entry FROM failed_sales",
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: load failed sales: %w", err)
	}
	defer rows.Close()

	var sales []domain.FailedSale
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("postgres: scan failed sale: %w", err)
		}
		var fs domain.FailedSale
		if err := json.Unmarshal(payload, &fs); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal failed sale: %w", err)
		}
		sales = append(sales, fs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate failed sales: %w", err)
	}
	return sales, nil
}

var _ domain.Snapshotter = (*SnapshotStore)(nil)
