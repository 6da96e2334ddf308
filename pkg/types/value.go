package types

import (
	"math"
	"strconv"
	"strings"
)

// ValueKind distinguishes the two shapes a record field can take.
type ValueKind int

// Value kinds.
const (
	KindText ValueKind = iota
	KindNumber
)

// Value is a tagged union holding either a number or a text value.
type Value struct {
	Kind ValueKind
	Num  float64
	Text string
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

// Text returns a text Value.
func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// ParseValue trims s and coerces it to a number when strconv.ParseFloat
// accepts it, otherwise keeps it as text.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	return Text(s)
}

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool {
	return v.Kind == KindNumber
}

// String renders v the way it is written to the consolidated index. Numbers
// use the shortest representation that parses back to the same float64.
func (v Value) String() string {
	if v.Kind == KindNumber {
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	}
	return v.Text
}

// Equal reports whether v and o have the same kind and value. NaN equals NaN
// so that records loaded from disk compare equal to the ones written.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	if v.Kind == KindNumber {
		if math.IsNaN(v.Num) && math.IsNaN(o.Num) {
			return true
		}
		return v.Num == o.Num
	}
	return v.Text == o.Text
}
