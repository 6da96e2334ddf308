package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nrmirror/internal/catalog"
)

func newCrawlCmd() *cobra.Command {
	var opts catalog.CrawlOptions
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Build the catalog index by probing simulation indices",
		Long: `Crawl resolves simulation indices 1..N through the disk cache, the stored
index and finally the remote catalog, writing metadata.csv after every new
record. An interrupted crawl resumes from what was stored.`,
		Example: `  nrmirror crawl -n 200
  nrmirror crawl -n 50 --resolutions 100,120 --max-id 3
  nrmirror crawl --no-cache -n 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.NumToCrawl <= 0 {
				return usageErrorf("--num must be positive, got %d", opts.NumToCrawl)
			}
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			idx, err := e.builder.Crawl(cmd.Context(), opts)
			if err != nil {
				return wrapDomainError(err)
			}

			stats := e.builder.Stats()
			out := cmd.OutOrStdout()
			if flags.jsonMode {
				return writeJSON(out, stats)
			}
			if stats.Resumed {
				okColor.Fprintf(out, "%d simulations already indexed\n", idx.Len())
				return nil
			}
			okColor.Fprintf(out, "%d simulations indexed\n", idx.Len())
			fmt.Fprintf(out, "  from cache: %d, from index: %d, fetched: %d, not found: %d, probes: %d\n",
				stats.FromCache, stats.FromIndex, stats.FromNetwork, stats.Skipped, stats.Probes)
			if e.cfg.UseCache {
				fmt.Fprintf(out, "  index: %s\n", e.cache.IndexPath())
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.NumToCrawl, "num", "n", catalog.DefaultNumToCrawl, "number of simulation indices to crawl")
	cmd.Flags().IntSliceVar(&opts.Resolutions, "resolutions", nil, "resolutions to probe (default: from config)")
	cmd.Flags().IntVar(&opts.MaxIdentifier, "max-id", 0, "identifiers 0..max-id-1 are probed (default: from config)")
	return cmd
}

func newRefreshCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the index from cached metadata files only",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			idx, err := e.builder.Refresh(cmd.Context(), n)
			if err != nil {
				return wrapDomainError(err)
			}
			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"records": idx.Len(), "index": e.cache.IndexPath()})
			}
			okColor.Fprintf(cmd.OutOrStdout(), "%d simulations indexed from cache\n", idx.Len())
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "num", "n", catalog.DefaultRefreshSize, "highest simulation index to look for")
	return cmd
}
