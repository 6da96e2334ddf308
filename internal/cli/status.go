package cli

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nrmirror/internal/catalog"
)

// mirrorStatus summarizes the local mirror of one catalog.
type mirrorStatus struct {
	Catalog       string              `json:"catalog"`
	BaseURL       string              `json:"base_url"`
	CacheDir      string              `json:"cache_dir"`
	IndexRecords  int                 `json:"index_records"`
	MetadataFiles int                 `json:"metadata_files"`
	WaveformFiles int                 `json:"waveform_files"`
	WaveformBytes int64               `json:"waveform_bytes"`
	LastCrawl     *catalog.CrawlState `json:"last_crawl,omitempty"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what is mirrored locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			st := mirrorStatus{
				Catalog:  e.cfg.CatalogName,
				BaseURL:  e.cfg.BaseURL,
				CacheDir: e.cache.CatalogDir(),
			}

			idx, err := e.cache.LoadIndex()
			if err != nil {
				return err
			}
			st.IndexRecords = idx.Len()
			if st.MetadataFiles, err = e.cache.CountMetadataFiles(); err != nil {
				return err
			}
			if st.WaveformFiles, st.WaveformBytes, err = dirUsage(e.cache.WaveformDir()); err != nil {
				return err
			}
			if st.LastCrawl, err = catalog.LoadState(e.cache.CatalogDir()); err != nil {
				return err
			}

			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), st)
			}
			printStatus(cmd.OutOrStdout(), st, time.Now())
			return nil
		},
	}
}

// dirUsage counts regular files under dir and their total size. A missing
// directory is empty.
func dirUsage(dir string) (int, int64, error) {
	var files int
	var size int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipDir
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files++
		size += info.Size()
		return nil
	})
	return files, size, err
}

func printStatus(w io.Writer, st mirrorStatus, now time.Time) {
	label := func(s string) { labelColor.Fprintf(w, "%-16s", s) }

	label("Catalog:")
	io.WriteString(w, st.Catalog+" ("+st.BaseURL+")\n")
	label("Cache:")
	io.WriteString(w, st.CacheDir+"\n")
	label("Index:")
	io.WriteString(w, humanize.Comma(int64(st.IndexRecords))+" simulations\n")
	label("Metadata files:")
	io.WriteString(w, humanize.Comma(int64(st.MetadataFiles))+"\n")
	label("Waveforms:")
	io.WriteString(w, humanize.Comma(int64(st.WaveformFiles))+" files, "+humanize.Bytes(uint64(st.WaveformBytes))+"\n")

	label("Last crawl:")
	if st.LastCrawl == nil {
		warnColor.Fprintln(w, "never")
	} else {
		c := st.LastCrawl
		io.WriteString(w, humanize.RelTime(c.FinishedAt, now, "ago", "from now")+
			" (run "+c.RunID+", "+humanize.Comma(int64(c.Stats.Requested))+" requested, "+
			humanize.Comma(int64(c.Stats.Probes))+" probes)\n")
	}

	if st.IndexRecords < st.MetadataFiles {
		warnColor.Fprintln(w, "Index is behind the metadata cache; run nrmirror refresh.")
	}
}
