package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nrmirror/internal/cache"
	"github.com/mesh-intelligence/nrmirror/pkg/types"
)

func newListCmd() *cobra.Command {
	var (
		limit  int
		fields []string
		asCSV  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed simulations",
		Example: `  nrmirror list
  nrmirror list -n 20 --fields mass-ratio,eccentricity
  nrmirror list --csv > catalog.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			idx, err := e.cache.LoadIndex()
			if err != nil {
				return err
			}
			if limit > 0 {
				idx = idx.Head(limit)
			}

			out := cmd.OutOrStdout()
			switch {
			case asCSV:
				return cache.WriteIndex(out, idx)
			case flags.jsonMode:
				rows := make([]map[string]any, 0, idx.Len())
				for _, rec := range idx.Records() {
					rows = append(rows, recordJSON(rec))
				}
				return writeJSON(out, rows)
			case idx.Len() == 0:
				fmt.Fprintln(out, "No simulations indexed; run nrmirror crawl first.")
				return nil
			}
			renderRecords(out, idx.Records(), fields)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "num", "n", 0, "show at most this many simulations (0 for all)")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "metadata fields to show as columns")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "write the index as CSV")
	return cmd
}

// selectRecords returns the records of idx named in names, in that order.
func selectRecords(idx *types.CatalogIndex, names []string) []*types.SimulationRecord {
	out := make([]*types.SimulationRecord, 0, len(names))
	for _, name := range names {
		if i := idx.Find(name); i >= 0 {
			out = append(out, idx.At(i))
		}
	}
	return out
}
