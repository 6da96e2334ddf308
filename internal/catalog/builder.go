package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mesh-intelligence/nrmirror/internal/cache"
	"github.com/mesh-intelligence/nrmirror/internal/logging"
	"github.com/mesh-intelligence/nrmirror/internal/metadata"
	"github.com/mesh-intelligence/nrmirror/internal/naming"
	"github.com/mesh-intelligence/nrmirror/pkg/types"
)

// Default sizes for a crawl and for rebuilding the index from the cache.
const (
	DefaultNumToCrawl  = 100
	DefaultRefreshSize = 2000
)

// CrawlOptions overrides the configured search space for one crawl. Zero
// values fall back to the Builder's configuration.
type CrawlOptions struct {
	NumToCrawl    int
	Resolutions   []int
	MaxIdentifier int
}

// CrawlStats counts how each simulation index was resolved in the last pass.
type CrawlStats struct {
	Requested   int  `toml:"requested" json:"requested"`
	Records     int  `toml:"records" json:"records"`
	FromCache   int  `toml:"from_cache" json:"from_cache"`
	FromIndex   int  `toml:"from_index" json:"from_index"`
	FromNetwork int  `toml:"from_network" json:"from_network"`
	Skipped     int  `toml:"skipped" json:"skipped"`
	Probes      int  `toml:"probes" json:"probes"`
	Resumed     bool `toml:"resumed" json:"resumed"`
}

type tier int

const (
	tierNone tier = iota
	tierCache
	tierIndex
	tierNetwork
)

// Builder crawls one catalog and maintains its consolidated index.
type Builder struct {
	cfg       types.Config
	cache     *cache.Cache
	names     *naming.Deriver
	transport Transport
	logger    *slog.Logger
	index     *types.CatalogIndex
	stats     CrawlStats
	now       func() time.Time
}

// NewBuilder returns a Builder for cfg that keeps files in c and reaches the
// catalog through t. A nil logger discards messages.
func NewBuilder(cfg types.Config, c *cache.Cache, t Transport, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Builder{
		cfg:       cfg,
		cache:     c,
		names:     naming.NewDeriver(cfg),
		transport: t,
		logger:    logger,
		index:     types.NewCatalogIndex(),
		now:       time.Now,
	}
}

// Index returns the index accumulated by the last Crawl or Refresh.
func (b *Builder) Index() *types.CatalogIndex {
	return b.index
}

// Stats returns the counters of the last Crawl.
func (b *Builder) Stats() CrawlStats {
	return b.stats
}

// Crawl resolves simulation indices 1..NumToCrawl and returns the index.
//
// When the cache is enabled and the stored index already holds at least
// NumToCrawl-1 records, the stored index is returned, truncated to
// NumToCrawl rows, without probing. The file on disk is never shrunk.
//
// An index that no tier resolves is skipped and leaves no trace, so the next
// crawl probes it again. A record whose name disagrees with the index it was
// found under aborts the pass with types.ErrIndexConsistency.
func (b *Builder) Crawl(ctx context.Context, opts CrawlOptions) (*types.CatalogIndex, error) {
	n := opts.NumToCrawl
	if n <= 0 {
		n = DefaultNumToCrawl
	}
	resolutions := opts.Resolutions
	if len(resolutions) == 0 {
		resolutions = b.cfg.Resolutions
	}
	maxID := opts.MaxIdentifier
	if maxID <= 0 {
		maxID = b.cfg.MaxIdentifier
	}

	state := newCrawlState(b.cfg.CatalogName, b.now())
	logger := b.logger.With("run_id", state.RunID)
	b.stats = CrawlStats{Requested: n}
	b.index = types.NewCatalogIndex()

	if b.cfg.UseCache {
		if err := b.cache.EnsureLayout(); err != nil {
			return nil, err
		}
		stored, err := b.cache.LoadIndex()
		if err != nil {
			return nil, err
		}
		if stored.Len() > 0 {
			logger.Info("loaded stored index", "path", b.cache.IndexPath(), "records", stored.Len())
		}
		if stored.Len() > 0 && stored.Len() >= n-1 {
			b.index = stored
			b.stats.Resumed = true
			b.stats.Records = min(stored.Len(), n)
			return stored.Head(n), nil
		}
		b.index = stored
	}

	for idx := 1; idx <= n; idx++ {
		if err := ctx.Err(); err != nil {
			return b.index, err
		}
		logger.Debug("hunting for simulation", "index", idx)

		rec, found, err := b.resolve(ctx, idx, resolutions, maxID)
		if err != nil {
			return b.index, fmt.Errorf("simulation index %d: %w", idx, err)
		}

		switch found {
		case tierNone:
			b.stats.Skipped++
			logger.Debug("simulation not found", "index", idx, "tags", b.names.SimulationTags(idx))
			continue
		case tierIndex:
			b.stats.FromIndex++
			logger.Debug("metadata found in index", "index", idx, "simulation", rec.SimulationName())
			continue
		case tierCache:
			b.stats.FromCache++
			logger.Debug("metadata found on disk", "index", idx, "simulation", rec.SimulationName())
		case tierNetwork:
			b.stats.FromNetwork++
			logger.Info("metadata fetched", "index", idx, "simulation", rec.SimulationName())
		}

		if b.insert(rec) && b.cfg.UseCache {
			if err := b.cache.StoreIndex(b.index); err != nil {
				return b.index, err
			}
		}
	}

	b.stats.Records = b.index.Len()
	if b.cfg.UseCache {
		state.Finish(b.now(), b.stats)
		if err := SaveState(b.cache.CatalogDir(), state); err != nil {
			logger.Warn("could not write crawl state", "error", err)
		}
	}
	logger.Info("crawl finished",
		"records", b.stats.Records,
		"from_cache", b.stats.FromCache,
		"from_network", b.stats.FromNetwork,
		"skipped", b.stats.Skipped,
		"probes", b.stats.Probes)
	return b.index, nil
}

// resolve tries the three tiers in order for one simulation index.
func (b *Builder) resolve(ctx context.Context, idx int, resolutions []int, maxID int) (*types.SimulationRecord, tier, error) {
	tags := b.names.SimulationTags(idx)

	if b.cfg.UseCache {
		rec, err := b.fromCache(ctx, tags)
		if err != nil || rec != nil {
			return rec, tierCache, err
		}
	}

	if b.index.Len() > 0 {
		rec, err := b.fromIndex(idx, tags)
		if err != nil || rec != nil {
			return rec, tierIndex, err
		}
	}

	rec, err := b.probe(ctx, idx, resolutions, maxID)
	if err != nil || rec != nil {
		return rec, tierNetwork, err
	}
	return nil, tierNone, nil
}

// fromCache parses the first cached metadata file matching one of the tags.
func (b *Builder) fromCache(ctx context.Context, tags [2]string) (*types.SimulationRecord, error) {
	for _, tag := range tags {
		fileName, ok, err := b.cache.FindByPrefix(tag)
		if err != nil {
			return nil, err
		}
		if !ok {
			b.logger.Log(ctx, logging.LevelTrace, "no cached metadata", "tag", tag)
			continue
		}
		path := b.cache.MetadataPath(fileName)
		rec, err := metadata.ParseFile(path)
		if err != nil {
			return nil, err
		}
		if rec.Empty() {
			continue
		}

		simName := naming.SimulationNameFromMetadataFile(fileName)
		wf, err := b.names.WaveformFileName(simName)
		if err != nil {
			return nil, err
		}
		rec.Set(types.FieldSimulationName, types.Text(simName))
		rec.Set(types.FieldMetadataLink, types.Text(remoteURL(b.cfg.BaseURL, remoteMetadataDir, fileName)))
		rec.Set(types.FieldMetadataLocation, types.Text(path))
		rec.Set(types.FieldWaveformDataLink, types.Text(remoteURL(b.cfg.BaseURL, remoteDataDir, wf)))
		rec.Set(types.FieldWaveformDataLocation, types.Text(b.cache.WaveformPath(wf)))
		return rec, nil
	}
	return nil, nil
}

// fromIndex returns the accumulated record whose name contains one of the
// tags. The index embedded in that name must be idx.
func (b *Builder) fromIndex(idx int, tags [2]string) (*types.SimulationRecord, error) {
	for _, rec := range b.index.Records() {
		name := rec.SimulationName()
		for _, tag := range tags {
			if !strings.Contains(name, tag) {
				continue
			}
			sn, err := naming.ParseSimulationName(name)
			if err != nil {
				return nil, err
			}
			if sn.Index != idx {
				return nil, fmt.Errorf("%w: record %q has index %d, searched for %d",
					types.ErrIndexConsistency, name, sn.Index, idx)
			}
			return rec, nil
		}
	}
	return nil, nil
}

// probe walks resolutions (outer) and identifiers (inner) until one
// candidate yields metadata. One resolution is enough: the remaining ones
// are not tried for this index.
func (b *Builder) probe(ctx context.Context, idx int, resolutions []int, maxID int) (*types.SimulationRecord, error) {
	for _, res := range resolutions {
		for id := 0; id < maxID; id++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			b.stats.Probes++
			rec, err := b.fetchMetadata(ctx, idx, res, id)
			if err != nil {
				return nil, err
			}
			if rec != nil {
				return rec, nil
			}
			b.logger.Log(ctx, logging.LevelTrace, "metadata not found", "index", idx, "resolution", res, "identifier", id)
		}
	}
	return nil, nil
}

// fetchMetadata tries both candidate metadata files of one probe, reading an
// exact cached copy when there is one and the network otherwise. Network
// hits are written to the cache.
func (b *Builder) fetchMetadata(ctx context.Context, idx, res, id int) (*types.SimulationRecord, error) {
	candidates, err := b.names.CandidateNames(idx, res, id)
	if err != nil {
		return nil, err
	}
	for _, cand := range candidates {
		fileName := cand.MetadataFile
		link := remoteURL(b.cfg.BaseURL, remoteMetadataDir, fileName)
		path := b.cache.MetadataPath(fileName)
		rec := types.NewSimulationRecord()
		var lines []string
		fromDisk := false

		if b.cfg.UseCache && cache.ExistsNonEmpty(path) {
			parsed, err := metadata.ParseFile(path)
			if err != nil {
				return nil, err
			}
			rec, fromDisk = parsed, true
			b.logger.Debug("reading from cache", "path", path)
		}

		if rec.Empty() {
			if !b.transport.Exists(ctx, link) {
				b.logger.Log(ctx, logging.LevelTrace, "tried and failed to find", "url", link)
				continue
			}
			b.logger.Debug("found", "url", link)
			data, err := b.transport.Fetch(ctx, link)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil, err
				}
				b.logger.Warn("could not fetch metadata", "url", link, "error", err)
				continue
			}
			lines = metadata.SplitLines(string(data))
			rec = metadata.Parse(lines)
			fromDisk = false
		}
		if rec.Empty() {
			continue
		}

		if b.cfg.UseCache && !fromDisk {
			wrote, err := b.cache.WriteMetadata(fileName, lines)
			if err != nil {
				return nil, err
			}
			if wrote {
				b.logger.Debug("writing to cache", "path", path)
			}
		}

		rec.Set(types.FieldSimulationName, types.Text(naming.SimulationNameFromMetadataFile(fileName)))
		rec.Set(types.FieldMetadataLink, types.Text(link))
		rec.Set(types.FieldMetadataLocation, types.Text(path))
		rec.Set(types.FieldWaveformDataLocation, types.Text(b.cache.WaveformPath(cand.WaveformFile)))
		return rec, nil
	}
	return nil, nil
}

// insert appends rec, or replaces the row carrying the same simulation name
// so that names stay unique. It reports whether the index changed.
func (b *Builder) insert(rec *types.SimulationRecord) bool {
	i := b.index.Find(rec.SimulationName())
	if i < 0 {
		b.index.Append(rec)
		return true
	}
	if b.index.At(i).Equal(rec) {
		return false
	}
	b.index.Replace(i, rec)
	return true
}

// Refresh rebuilds the index from cached metadata files alone for indices
// 1..n and overwrites the stored index with the result.
func (b *Builder) Refresh(ctx context.Context, n int) (*types.CatalogIndex, error) {
	if n <= 0 {
		n = DefaultRefreshSize
	}
	idx := types.NewCatalogIndex()
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := b.fromCache(ctx, b.names.SimulationTags(i))
		if err != nil {
			return nil, fmt.Errorf("simulation index %d: %w", i, err)
		}
		if rec != nil {
			idx.Append(rec)
		}
	}
	if err := b.cache.StoreIndex(idx); err != nil {
		return nil, err
	}
	b.index = idx
	b.logger.Info("index rebuilt from cache", "path", b.cache.IndexPath(), "records", idx.Len())
	return idx, nil
}
