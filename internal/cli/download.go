package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nrmirror/internal/catalog"
	"github.com/mesh-intelligence/nrmirror/pkg/types"
)

func newDownloadCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "download [simulation...]",
		Short: "Download waveform files",
		Long: `Download fetches the waveform file of each named simulation. Without names
it downloads the first N simulations of the stored index, rebuilding the index
from the cache first when it is behind. Files already cached are not fetched
again; files missing upstream are reported and skipped.`,
		Example: `  nrmirror download RIT:BBH:0001-n100-id3
  nrmirror download -n 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			d := catalog.NewDownloader(e.builder)

			var report *catalog.DownloadReport
			if len(args) > 0 {
				report, err = downloadNamed(cmd, d, args)
			} else {
				report, err = d.DownloadCatalog(cmd.Context(), n)
			}
			if err != nil {
				return wrapDomainError(err)
			}

			out := cmd.OutOrStdout()
			if flags.jsonMode {
				failed := make(map[string]string, len(report.Failed))
				for name, ferr := range report.Failed {
					failed[name] = ferr.Error()
				}
				return writeJSON(out, map[string]any{
					"paths":      report.Paths,
					"downloaded": len(report.Downloaded),
					"cached":     len(report.Cached),
					"bytes":      report.Bytes(),
					"missing":    report.Missing,
					"failed":     failed,
				})
			}
			printReport(out, report)
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d downloads failed", len(report.Failed))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "num", "n", 0, "number of indexed simulations to download (0 for all)")
	return cmd
}

// downloadNamed downloads the given simulations into one report.
func downloadNamed(cmd *cobra.Command, d *catalog.Downloader, names []string) (*catalog.DownloadReport, error) {
	report := &catalog.DownloadReport{Paths: map[string]string{}, Failed: map[string]error{}}
	for _, name := range names {
		res, err := d.Download(cmd.Context(), name)
		switch {
		case err == nil && res.Cached:
			report.Cached = append(report.Cached, res)
		case err == nil:
			report.Downloaded = append(report.Downloaded, res)
		case errors.Is(err, types.ErrRemoteResourceMissing):
			report.Missing = append(report.Missing, name)
		case errors.Is(err, types.ErrNameFormat):
			return nil, err
		default:
			report.Failed[name] = err
		}
		if res.Path != "" {
			report.Paths[name] = res.Path
		}
	}
	return report, nil
}

func printReport(out io.Writer, r *catalog.DownloadReport) {
	okColor.Fprintf(out, "%d downloaded (%s), %d already cached\n",
		len(r.Downloaded), humanize.Bytes(uint64(r.Bytes())), len(r.Cached))
	for _, name := range r.Missing {
		warnColor.Fprintf(out, "  missing upstream: %s\n", name)
	}
	for name, err := range r.Failed {
		warnColor.Fprintf(out, "  failed: %s: %v\n", name, err)
	}
}
