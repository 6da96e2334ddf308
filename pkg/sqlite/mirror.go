// Package sqlite provides the public API for the SQLite query mirror of a
// catalog index while keeping implementation details internal.
package sqlite

import (
	"context"

	"github.com/mesh-intelligence/nrmirror/internal/sqlite"
	"github.com/mesh-intelligence/nrmirror/pkg/types"
)

// Mirror answers metadata queries over a loaded catalog index.
type Mirror = sqlite.Mirror

// Condition compares one metadata field against a value.
type Condition = sqlite.Condition

// ParseCondition parses "field<op>value" with op one of = != < <= > >=.
func ParseCondition(s string) (Condition, error) {
	return sqlite.ParseCondition(s)
}

// OpenIndex creates a fresh database at path and loads idx into it.
//
// Example:
//
//	m, err := sqlite.OpenIndex(ctx, "catalog.db", idx)
//	if err != nil { ... }
//	defer m.Close()
//	names, err := m.Query(ctx, conds)
func OpenIndex(ctx context.Context, path string, idx *types.CatalogIndex) (*Mirror, error) {
	m, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	if err := m.Load(ctx, idx); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}
