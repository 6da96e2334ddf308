package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mesh-intelligence/nrmirror/pkg/types"
)

var (
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	labelColor = color.New(color.Bold)
)

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// recordJSON flattens a record into a JSON object. Numbers stay numbers.
func recordJSON(rec *types.SimulationRecord) map[string]any {
	out := make(map[string]any, rec.Len())
	for _, f := range rec.Fields() {
		v, _ := rec.Get(f)
		if v.IsNumber() {
			out[f] = v.Num
		} else {
			out[f] = v.Text
		}
	}
	return out
}

// renderRecords prints records as a table with the simulation name first
// and one column per requested field. Absent fields render empty.
func renderRecords(w io.Writer, records []*types.SimulationRecord, fields []string) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Format.Header = text.FormatDefault

	header := table.Row{"#", types.FieldSimulationName}
	for _, f := range fields {
		header = append(header, f)
	}
	tbl.AppendHeader(header)

	for i, rec := range records {
		row := table.Row{i + 1, rec.SimulationName()}
		for _, f := range fields {
			v, ok := rec.Get(f)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, v.String())
		}
		tbl.AppendRow(row)
	}
	tbl.AppendFooter(table.Row{"", fmt.Sprintf("%d simulations", len(records))})
	tbl.Render()
}
