package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/mesh-intelligence/nrmirror/internal/cache"
	"github.com/mesh-intelligence/nrmirror/internal/naming"
	"github.com/mesh-intelligence/nrmirror/pkg/types"
)

// DownloadResult describes one waveform file.
type DownloadResult struct {
	SimulationName string
	Path           string
	URL            string
	Bytes          int64
	Cached         bool
}

// DownloadReport summarizes a catalog download. Paths maps every attempted
// simulation name to its local waveform path, present or not.
type DownloadReport struct {
	Paths      map[string]string
	Downloaded []DownloadResult
	Cached     []DownloadResult
	Missing    []string
	Failed     map[string]error
}

func newDownloadReport() *DownloadReport {
	return &DownloadReport{
		Paths:  make(map[string]string),
		Failed: make(map[string]error),
	}
}

// Bytes returns the total size of files fetched in this run.
func (r *DownloadReport) Bytes() int64 {
	var n int64
	for _, d := range r.Downloaded {
		n += d.Bytes
	}
	return n
}

// Downloader fetches waveform files for simulations in a Builder's catalog.
type Downloader struct {
	builder *Builder
	cache   *cache.Cache
	names   *naming.Deriver
	logger  *slog.Logger
}

// NewDownloader returns a Downloader sharing b's configuration, cache and
// transport.
func NewDownloader(b *Builder) *Downloader {
	return &Downloader{
		builder: b,
		cache:   b.cache,
		names:   b.names,
		logger:  b.logger,
	}
}

// Download mirrors the waveform file of one simulation. A nonempty local
// copy is never fetched again. A file absent upstream yields an error
// wrapping types.ErrRemoteResourceMissing and leaves nothing on disk.
func (d *Downloader) Download(ctx context.Context, simName string) (DownloadResult, error) {
	wf, err := d.names.WaveformFileName(simName)
	if err != nil {
		return DownloadResult{}, err
	}
	res := DownloadResult{
		SimulationName: simName,
		Path:           d.cache.WaveformPath(wf),
		URL:            remoteURL(d.builder.cfg.BaseURL, remoteDataDir, wf),
	}

	if cache.ExistsNonEmpty(res.Path) {
		res.Cached = true
		d.logger.Debug("waveform already cached", "path", res.Path)
		return res, nil
	}

	if !d.builder.transport.Exists(ctx, res.URL) {
		d.logger.Warn("waveform not found upstream", "url", res.URL)
		return res, fmt.Errorf("%w: %s", types.ErrRemoteResourceMissing, res.URL)
	}

	body, err := d.builder.transport.Open(ctx, res.URL)
	if err != nil {
		return res, fmt.Errorf("downloading %s: %w", res.URL, err)
	}
	defer body.Close()

	n, err := cache.WriteFile(res.Path, body)
	if err != nil {
		return res, err
	}
	res.Bytes = n
	d.logger.Info("downloaded waveform", "simulation", simName, "path", res.Path, "size", humanize.Bytes(uint64(n)))
	return res, nil
}

// DownloadCatalog downloads waveforms for the first n simulations of the
// stored index. When the cache holds more metadata files than the index has
// rows, the index is rebuilt from the cache first. Missing and failed files
// are reported, not returned; a malformed simulation name or a canceled
// context stops the run.
func (d *Downloader) DownloadCatalog(ctx context.Context, n int) (*DownloadReport, error) {
	idx, err := d.catalogIndex(ctx)
	if err != nil {
		return nil, err
	}

	report := newDownloadReport()
	for i, rec := range idx.Records() {
		if n > 0 && i >= n {
			break
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		name := rec.SimulationName()
		res, err := d.Download(ctx, name)
		if res.Path != "" {
			report.Paths[name] = res.Path
		}
		switch {
		case err == nil && res.Cached:
			report.Cached = append(report.Cached, res)
		case err == nil:
			report.Downloaded = append(report.Downloaded, res)
		case errors.Is(err, types.ErrRemoteResourceMissing):
			report.Missing = append(report.Missing, name)
		case errors.Is(err, types.ErrNameFormat),
			errors.Is(err, context.Canceled),
			errors.Is(err, context.DeadlineExceeded):
			return report, err
		default:
			d.logger.Warn("waveform download failed", "simulation", name, "error", err)
			report.Failed[name] = err
		}
	}
	d.logger.Info("catalog download finished",
		"downloaded", len(report.Downloaded),
		"cached", len(report.Cached),
		"missing", len(report.Missing),
		"failed", len(report.Failed),
		"size", humanize.Bytes(uint64(report.Bytes())))
	return report, nil
}

// catalogIndex loads the stored index, refreshing it when it lags behind the
// cached metadata files.
func (d *Downloader) catalogIndex(ctx context.Context) (*types.CatalogIndex, error) {
	stored, err := d.cache.LoadIndex()
	if err != nil {
		return nil, err
	}
	files, err := d.cache.CountMetadataFiles()
	if err != nil {
		return nil, err
	}
	if stored.Len() >= files {
		return stored, nil
	}
	d.logger.Info("index behind cache, rebuilding", "records", stored.Len(), "metadata_files", files)
	return d.builder.Refresh(ctx, DefaultRefreshSize)
}
