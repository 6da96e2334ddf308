package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/nrmirror/pkg/types"
)

// ErrInvalidCondition is returned for a condition that cannot be parsed or
// uses an unknown operator.
var ErrInvalidCondition = errors.New("invalid condition")

// Comparison operators accepted in conditions.
const (
	OpEq = "="
	OpNe = "!="
	OpLt = "<"
	OpLe = "<="
	OpGt = ">"
	OpGe = ">="
)

// parseOrder lists operators so that, at equal positions, two-character ones
// win over their one-character prefixes.
var parseOrder = []string{OpNe, OpLe, OpGe, OpEq, OpLt, OpGt}

var validOps = map[string]bool{
	OpEq: true, OpNe: true, OpLt: true, OpLe: true, OpGt: true, OpGe: true,
}

// Condition compares one metadata field against a value. A numeric value
// matches numeric fields only, a text value matches text fields only.
type Condition struct {
	Field string
	Op    string
	Value types.Value
}

// ParseCondition parses "field<op>value", for example "mass-ratio>=2" or
// "eccentricity = 0". The condition is split at the earliest operator, so the
// value may itself contain operator characters. The value is coerced the way
// metadata values are.
func ParseCondition(s string) (Condition, error) {
	op, at := "", -1
	for _, cand := range parseOrder {
		i := strings.Index(s, cand)
		if i < 0 {
			continue
		}
		if at < 0 || i < at {
			op, at = cand, i
		}
	}
	if at < 0 {
		return Condition{}, fmt.Errorf("%w: %q has no operator", ErrInvalidCondition, s)
	}
	field := strings.TrimSpace(s[:at])
	if field == "" {
		return Condition{}, fmt.Errorf("%w: %q has no field name", ErrInvalidCondition, s)
	}
	return Condition{Field: field, Op: op, Value: types.ParseValue(s[at+len(op):])}, nil
}

// String renders the condition in the form ParseCondition accepts.
func (c Condition) String() string {
	return c.Field + c.Op + c.Value.String()
}

// Query returns the names of simulations matching every condition, in index
// order. No conditions matches every simulation.
func (m *Mirror) Query(ctx context.Context, conds []Condition) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return nil, ErrClosed
	}

	var where []string
	var args []any
	for _, c := range conds {
		if !validOps[c.Op] {
			return nil, fmt.Errorf("%w: operator %q", ErrInvalidCondition, c.Op)
		}
		column, valueType := "text", valueTypeText
		var arg any = c.Value.Text
		if c.Value.IsNumber() {
			column, valueType, arg = "num", valueTypeNumber, c.Value.Num
		}
		where = append(where, fmt.Sprintf(`EXISTS (SELECT 1 FROM fields f
    WHERE f.simulation_id = s.simulation_id AND f.name = ? AND f.value_type = ? AND f.%s %s ?)`, column, c.Op))
		args = append(args, c.Field, valueType, arg)
	}

	q := "SELECT s.simulation_name FROM simulations s"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY s.simulation_id"

	rows, err := m.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying simulations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning simulation name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
