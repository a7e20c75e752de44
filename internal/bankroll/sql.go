package bankroll

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS bankrolls (
    player_id TEXT PRIMARY KEY,
    balance   BIGINT NOT NULL CHECK (balance >= 0)
)`

// SQL is a Store backed by database/sql. It runs against SQLite
// (modernc.org/sqlite, driver "sqlite") or PostgreSQL (lib/pq, driver
// "postgres"); the statements are the dialect both share.
type SQL struct {
	db *sql.DB
}

// OpenSQL connects, pings and ensures the schema exists.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQL, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("empty %s dsn", driver)
	}
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported bankroll driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// One writer keeps the conditional updates serialised.
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bankroll schema: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQL) Debit(ctx context.Context, playerID string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE bankrolls SET balance = balance - $1 WHERE player_id = $2 AND balance >= $1`,
		amount, playerID)
	if err != nil {
		return fmt.Errorf("debit %s: %w", playerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	bal, err := s.Balance(ctx, playerID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, playerID, bal, amount)
}

func (s *SQL) Credit(ctx context.Context, playerID string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO bankrolls (player_id, balance) VALUES ($1, $2)
ON CONFLICT (player_id) DO UPDATE SET balance = bankrolls.balance + excluded.balance`,
		playerID, amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", playerID, err)
	}
	return nil
}

func (s *SQL) Balance(ctx context.Context, playerID string) (int64, error) {
	var bal int64
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM bankrolls WHERE player_id = $1`, playerID).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if err != nil {
		return 0, fmt.Errorf("balance %s: %w", playerID, err)
	}
	return bal, nil
}
