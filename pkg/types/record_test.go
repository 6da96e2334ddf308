package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{"1.0", Number(1)},
		{"  -3.5e2 ", Number(-350)},
		{"0", Number(0)},
		{"BAM", Text("BAM")},
		{" 2023-01-05 ", Text("2023-01-05")},
		{"", Text("")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.True(t, tt.want.Equal(ParseValue(tt.in)), "ParseValue(%q)", tt.in)
		})
	}
}

func TestValueStringParsesBack(t *testing.T) {
	for _, f := range []float64{1, 0.1, 1e-12, 123456789.125, -0.75} {
		v := Number(f)
		assert.True(t, v.Equal(ParseValue(v.String())), "value %v", f)
	}
	assert.True(t, Number(math.NaN()).Equal(Number(math.NaN())))
	assert.False(t, Number(1).Equal(Text("1")))
}

func TestSimulationRecordKeepsFirstInsertionOrder(t *testing.T) {
	r := NewSimulationRecord()
	r.Set("b", Number(1))
	r.Set("a", Text("x"))
	r.Set("b", Number(2))

	assert.Equal(t, []string{"b", "a"}, r.Fields())
	v, ok := r.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2.0, v.Num)
	assert.Equal(t, "x", r.Text("a"))
	assert.Equal(t, "", r.Text("missing"))
}

func TestSimulationRecordCloneIsIndependent(t *testing.T) {
	r := NewSimulationRecord()
	r.Set(FieldSimulationName, Text("RIT:BBH:0001-n100-id0"))
	c := r.Clone()
	c.Set("extra", Number(1))

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 2, c.Len())
	assert.False(t, r.Equal(c))
	assert.Equal(t, "RIT:BBH:0001-n100-id0", c.SimulationName())
}

func TestSimulationRecordEqualTreatsEmptyTextAsAbsent(t *testing.T) {
	r := NewSimulationRecord()
	r.Set("q", Number(1))
	r.Set("comment", Text(""))

	o := NewSimulationRecord()
	o.Set("q", Number(1))

	assert.True(t, r.Equal(o))
	assert.True(t, o.Equal(r))

	r.Set("comment", Text("spin flip"))
	assert.False(t, r.Equal(o))
	assert.False(t, o.Equal(r))

	o.Set("comment", Number(0))
	r.Set("comment", Text(""))
	assert.False(t, r.Equal(o), "a number is never empty text")
}

func TestCatalogIndexColumnsAndHead(t *testing.T) {
	idx := NewCatalogIndex()
	a := NewSimulationRecord()
	a.Set("q", Number(1))
	a.Set(FieldSimulationName, Text("A"))
	b := NewSimulationRecord()
	b.Set(FieldSimulationName, Text("B"))
	b.Set("chi", Number(0.2))
	idx.Append(a)
	idx.Append(b)

	assert.Equal(t, []string{"q", FieldSimulationName, "chi"}, idx.Columns())
	assert.Equal(t, 1, idx.Find("B"))
	assert.Equal(t, -1, idx.Find("C"))
	assert.Equal(t, []string{"A", "B"}, idx.SimulationNames())

	head := idx.Head(1)
	assert.Equal(t, 1, head.Len())
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 2, idx.Head(10).Len())
	assert.Equal(t, 0, idx.Head(-1).Len())
}
