package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/nrmirror/pkg/types"
)

// ErrClosed is returned by operations on a closed Mirror.
var ErrClosed = errors.New("sqlite mirror is closed")

// Mirror is a query engine over one catalog index.
type Mirror struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// Open creates a fresh database at path. An existing file is removed first
// so the schema always matches this build.
func Open(path string) (*Mirror, error) {
	_ = os.Remove(path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// A single connection keeps PRAGMA settings and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	for _, ddl := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return &Mirror{db: db, path: path}, nil
}

// Path returns the database file path.
func (m *Mirror) Path() string {
	return m.path
}

// Close releases the database. Closing twice is a no-op.
func (m *Mirror) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

// Load replaces the database contents with idx in one transaction: either
// every record is loaded or the previous contents remain.
func (m *Mirror) Load(ctx context.Context, idx *types.CatalogIndex) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return ErrClosed
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM fields"); err != nil {
		return fmt.Errorf("clearing fields: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM simulations"); err != nil {
		return fmt.Errorf("clearing simulations: %w", err)
	}

	simStmt, err := tx.PrepareContext(ctx, `INSERT INTO simulations
    (simulation_name, metadata_link, metadata_location, waveform_data_link, waveform_data_location)
    VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing simulation insert: %w", err)
	}
	defer simStmt.Close()

	fieldStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO fields (simulation_id, name, value_type, num, text) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing field insert: %w", err)
	}
	defer fieldStmt.Close()

	for _, rec := range idx.Records() {
		name := rec.SimulationName()
		res, err := simStmt.ExecContext(ctx, name,
			nullText(rec, types.FieldMetadataLink),
			nullText(rec, types.FieldMetadataLocation),
			nullText(rec, types.FieldWaveformDataLink),
			nullText(rec, types.FieldWaveformDataLocation))
		if err != nil {
			return fmt.Errorf("inserting %q: %w", name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading id of %q: %w", name, err)
		}

		for _, field := range rec.Fields() {
			v, _ := rec.Get(field)
			if v.IsNumber() {
				_, err = fieldStmt.ExecContext(ctx, id, field, valueTypeNumber, v.Num, nil)
			} else {
				_, err = fieldStmt.ExecContext(ctx, id, field, valueTypeText, nil, v.Text)
			}
			if err != nil {
				return fmt.Errorf("inserting field %q of %q: %w", field, name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// nullText returns the text of a record field, or nil when it is absent.
func nullText(rec *types.SimulationRecord, field string) any {
	v, ok := rec.Get(field)
	if !ok {
		return nil
	}
	return v.String()
}

// Count returns the number of loaded simulations.
func (m *Mirror) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return 0, ErrClosed
	}
	var n int
	if err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM simulations").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting simulations: %w", err)
	}
	return n, nil
}
