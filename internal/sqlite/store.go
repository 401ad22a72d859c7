// Package sqlite implements a local tabular store backend. It emulates the
// remote sheet as a grid of cells in one SQLite table, which gives tests
// and offline runs a real Store with the same ragged-row semantics.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/dukaforge/sheetledger/pkg/types"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cells (
	row   INTEGER NOT NULL,
	col   INTEGER NOT NULL,
	value TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (row, col)
);
`

// Store implements types.Store over a SQLite cells grid. A RWMutex guards
// the handle so concurrent engine operations see consistent grids.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
	log    *zap.Logger
}

// Open creates the data directory if needed, opens ledger.db inside it, and
// ensures the cells schema exists.
func Open(dataDir string, log *zap.Logger) (*Store, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "ledger.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// ErrClosed reports use after Close.
var ErrClosed = errors.New("store is closed")

// ReadRows reconstructs the grid in store order, header first. Each row is
// as wide as its highest occupied column; fully empty trailing rows are
// preserved so row numbering stays aligned with the grid.
func (s *Store) ReadRows(ctx context.Context) ([][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var maxRow int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(row), 0) FROM cells").Scan(&maxRow); err != nil {
		return nil, unavailable("reading row count", err)
	}
	rows := make([][]string, maxRow)

	result, err := s.db.QueryContext(ctx, "SELECT row, col, value FROM cells ORDER BY row, col")
	if err != nil {
		return nil, unavailable("reading cells", err)
	}
	defer result.Close()

	for result.Next() {
		var row, col int
		var value string
		if err := result.Scan(&row, &col, &value); err != nil {
			return nil, fmt.Errorf("scanning cell: %w", err)
		}
		r := rows[row-1]
		for len(r) <= col {
			r = append(r, "")
		}
		r[col] = value
		rows[row-1] = r
	}
	if err := result.Err(); err != nil {
		return nil, unavailable("reading cells", err)
	}
	return rows, nil
}

// WriteCell overwrites a single cell.
func (s *Store) WriteCell(ctx context.Context, row, col int, value string) error {
	if row < 1 || col < 0 {
		return fmt.Errorf("write cell: invalid position row=%d col=%d", row, col)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cells (row, col, value) VALUES (?, ?, ?)
		ON CONFLICT(row, col) DO UPDATE SET value = excluded.value`,
		row, col, value)
	if err != nil {
		return unavailable("writing cell", err)
	}
	return nil
}

// AppendRow adds a row after the last occupied row.
func (s *Store) AppendRow(ctx context.Context, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("starting append", err)
	}
	defer tx.Rollback()

	var maxRow int
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(row), 0) FROM cells").Scan(&maxRow); err != nil {
		return unavailable("reading row count", err)
	}
	row := maxRow + 1
	for col, value := range values {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO cells (row, col, value) VALUES (?, ?, ?)", row, col, value); err != nil {
			return unavailable("appending cells", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("committing append", err)
	}
	return nil
}

// Seed replaces the whole grid. Used by the init command and by tests.
func (s *Store) Seed(ctx context.Context, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("starting seed", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cells"); err != nil {
		return unavailable("clearing cells", err)
	}
	for i, row := range rows {
		for col, value := range row {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO cells (row, col, value) VALUES (?, ?, ?)", i+1, col, value); err != nil {
				return unavailable("seeding cells", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("committing seed", err)
	}
	s.log.Debug("store seeded", zap.Int("rows", len(rows)))
	return nil
}

// Close releases the database handle. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(types.ErrStoreUnavailable, err))
}
