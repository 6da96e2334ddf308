package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nrmirror/pkg/sqlite"
)

// mirrorFileName is the SQLite query mirror kept in the catalog directory.
const mirrorFileName = "catalog.db"

func newQueryCmd() *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "query [condition...]",
		Short: "Find simulations by metadata values",
		Long: `Query loads the stored index into a SQLite mirror and prints the simulations
matching every condition. A condition is field<op>value with op one of
= != < <= > >=. Numeric values compare numerically; other values compare as
text. Simulations without the field never match.`,
		Example: `  nrmirror query 'mass-ratio>=4'
  nrmirror query 'eccentricity=0' 'relaxed-chi1z>0.5' --fields mass-ratio,relaxed-chi1z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conds := make([]sqlite.Condition, 0, len(args))
			for _, a := range args {
				c, err := sqlite.ParseCondition(a)
				if err != nil {
					return userError{err}
				}
				conds = append(conds, c)
			}

			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			idx, err := e.cache.LoadIndex()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if idx.Len() == 0 && !flags.jsonMode {
				fmt.Fprintln(out, "No simulations indexed; run nrmirror crawl first.")
				return nil
			}
			if err := e.cache.EnsureLayout(); err != nil {
				return err
			}

			m, err := sqlite.OpenIndex(cmd.Context(), filepath.Join(e.cache.CatalogDir(), mirrorFileName), idx)
			if err != nil {
				return err
			}
			defer m.Close()

			names, err := m.Query(cmd.Context(), conds)
			if err != nil {
				return err
			}
			e.logger.Debug("query evaluated", "conditions", len(conds), "matches", len(names))

			if flags.jsonMode {
				if names == nil {
					names = []string{}
				}
				return writeJSON(out, names)
			}
			if len(fields) > 0 {
				renderRecords(out, selectRecords(idx, names), fields)
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "show matches as a table with these fields")
	return cmd
}
