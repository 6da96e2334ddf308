package catalog

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/nrmirror/internal/cache"
	"github.com/mesh-intelligence/nrmirror/pkg/types"
)

const testBaseURL = "https://catalog.test/nr"

// fakeTransport serves a fixed set of URLs and records every call.
type fakeTransport struct {
	mu       sync.Mutex
	files    map[string]string
	fetchErr map[string]error
	exists   []string
	fetches  []string
	opens    []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{files: map[string]string{}, fetchErr: map[string]error{}}
}

func (f *fakeTransport) addMetadata(fileName, body string) {
	f.files[remoteURL(testBaseURL, remoteMetadataDir, fileName)] = body
}

func (f *fakeTransport) addWaveform(fileName, body string) {
	f.files[remoteURL(testBaseURL, remoteDataDir, fileName)] = body
}

func (f *fakeTransport) Exists(_ context.Context, url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exists = append(f.exists, url)
	_, ok := f.files[url]
	return ok
}

func (f *fakeTransport) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, url)
	if err := f.fetchErr[url]; err != nil {
		return nil, err
	}
	return []byte(f.files[url]), nil
}

func (f *fakeTransport) Open(_ context.Context, url string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens = append(f.opens, url)
	return io.NopCloser(strings.NewReader(f.files[url])), nil
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.exists) + len(f.fetches) + len(f.opens)
}

func testConfig(t *testing.T) types.Config {
	t.Helper()
	cfg := types.DefaultConfig()
	cfg.BaseURL = testBaseURL
	cfg.CacheDir = t.TempDir()
	cfg.Resolutions = []int{100, 120}
	cfg.MaxIdentifier = 3
	return cfg
}

func newTestBuilder(t *testing.T, cfg types.Config, tr Transport) (*Builder, *cache.Cache) {
	t.Helper()
	c := cache.New(cfg.CacheDir, cfg.CatalogName)
	return NewBuilder(cfg, c, tr, nil), c
}

func metadataBody(simName string, q float64) string {
	return "# RIT metadata\n" +
		"simulation-name = " + simName + "\n" +
		"mass-ratio = " + types.Number(q).String() + "\n" +
		"eccentricity = 0.0\n"
}

func writeCached(t *testing.T, c *cache.Cache, fileName, body string) {
	t.Helper()
	require.NoError(t, c.EnsureLayout())
	require.NoError(t, os.WriteFile(c.MetadataPath(fileName), []byte(body), 0o644))
}

func TestCrawlFromNetworkOnEmptyCache(t *testing.T) {
	cfg := testConfig(t)
	tr := newFakeTransport()
	tr.addMetadata("RIT:BBH:0001-n100-id0_Metadata.txt", metadataBody("q1", 1))
	tr.addMetadata("RIT:eBBH:0002-n120-ecc_Metadata.txt", metadataBody("e2", 2))
	b, c := newTestBuilder(t, cfg, tr)

	idx, err := b.Crawl(context.Background(), CrawlOptions{NumToCrawl: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"RIT:BBH:0001-n100-id0", "RIT:eBBH:0002-n120-ecc"}, idx.SimulationNames())

	first := idx.At(0)
	q, ok := first.Get("mass-ratio")
	require.True(t, ok)
	assert.Equal(t, types.Number(1), q)
	assert.Equal(t, remoteURL(testBaseURL, "Metadata", "RIT:BBH:0001-n100-id0_Metadata.txt"), first.Text(types.FieldMetadataLink))
	assert.Equal(t, c.MetadataPath("RIT:BBH:0001-n100-id0_Metadata.txt"), first.Text(types.FieldMetadataLocation))
	assert.Equal(t, c.WaveformPath("ExtrapStrain_RIT-BBH-0001-n100.h5"), first.Text(types.FieldWaveformDataLocation))
	_, hasLink := first.Get(types.FieldWaveformDataLink)
	assert.False(t, hasLink, "network hits carry no waveform link")

	assert.True(t, cache.ExistsNonEmpty(c.MetadataPath("RIT:BBH:0001-n100-id0_Metadata.txt")))
	assert.True(t, cache.ExistsNonEmpty(c.MetadataPath("RIT:eBBH:0002-n120-ecc_Metadata.txt")))

	stored, err := c.LoadIndex()
	require.NoError(t, err)
	assert.Equal(t, idx.SimulationNames(), stored.SimulationNames())

	stats := b.Stats()
	assert.Equal(t, 2, stats.FromNetwork)
	assert.Equal(t, 1, stats.Skipped)
	// index 1: one probe; index 2: three at n100 then one at n120; index 3: all six.
	assert.Equal(t, 1+4+6, stats.Probes)

	state, err := LoadState(c.CatalogDir())
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "RIT", state.Catalog)
	assert.NotEmpty(t, state.RunID)
	assert.Equal(t, 2, state.Stats.Records)
	assert.False(t, state.FinishedAt.Before(state.StartedAt))
}

func TestCrawlStopsAtFirstResolution(t *testing.T) {
	cfg := testConfig(t)
	tr := newFakeTransport()
	tr.addMetadata("RIT:BBH:0001-n100-id2_Metadata.txt", metadataBody("a", 1))
	tr.addMetadata("RIT:BBH:0001-n120-id0_Metadata.txt", metadataBody("b", 1))
	b, _ := newTestBuilder(t, cfg, tr)

	idx, err := b.Crawl(context.Background(), CrawlOptions{NumToCrawl: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"RIT:BBH:0001-n100-id2"}, idx.SimulationNames())
	for _, u := range tr.exists {
		assert.NotContains(t, u, "n120")
	}
}

func TestCrawlResumesFromStoredIndex(t *testing.T) {
	cfg := testConfig(t)
	tr := newFakeTransport()
	tr.addMetadata("RIT:BBH:0001-n100-id0_Metadata.txt", metadataBody("q1", 1))
	tr.addMetadata("RIT:BBH:0002-n100-id0_Metadata.txt", metadataBody("q2", 2))
	b, _ := newTestBuilder(t, cfg, tr)
	_, err := b.Crawl(context.Background(), CrawlOptions{NumToCrawl: 2})
	require.NoError(t, err)

	offline := newFakeTransport()
	again, c := newTestBuilder(t, cfg, offline)
	idx, err := again.Crawl(context.Background(), CrawlOptions{NumToCrawl: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
	assert.Zero(t, offline.calls())
	assert.True(t, again.Stats().Resumed)

	idx, err = again.Crawl(context.Background(), CrawlOptions{NumToCrawl: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len(), "result is truncated to the requested size")

	stored, err := c.LoadIndex()
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Len(), "stored index is never shrunk")
}

func TestCrawlPrefersCacheAndReplacesStoredRecord(t *testing.T) {
	cfg := testConfig(t)
	tr := newFakeTransport()
	b, c := newTestBuilder(t, cfg, tr)

	stale := types.NewSimulationRecord()
	stale.Set(types.FieldSimulationName, types.Text("RIT:BBH:0001-n100-id0"))
	stale.Set("mass-ratio", types.Number(9))
	seed := types.NewCatalogIndex()
	seed.Append(stale)
	require.NoError(t, c.EnsureLayout())
	require.NoError(t, c.StoreIndex(seed))
	writeCached(t, c, "RIT:BBH:0001-n100-id0_Metadata.txt", metadataBody("q1", 1))

	idx, err := b.Crawl(context.Background(), CrawlOptions{NumToCrawl: 4})
	require.NoError(t, err)

	require.Equal(t, 1, idx.Len())
	rec := idx.At(0)
	q, _ := rec.Get("mass-ratio")
	assert.Equal(t, types.Number(1), q)
	assert.Equal(t,
		remoteURL(testBaseURL, "Data", "ExtrapStrain_RIT-BBH-0001-n100.h5"),
		rec.Text(types.FieldWaveformDataLink))
	assert.Equal(t, 1, b.Stats().FromCache)
	for _, u := range tr.exists {
		assert.NotContains(t, u, "0001", "cached index is never probed")
	}

	stored, err := c.LoadIndex()
	require.NoError(t, err)
	require.Equal(t, 1, stored.Len())
	assert.Equal(t, rec.Text(types.FieldWaveformDataLink), stored.At(0).Text(types.FieldWaveformDataLink))
}

func TestCrawlUsesIndexWhenCacheFileIsGone(t *testing.T) {
	cfg := testConfig(t)
	tr := newFakeTransport()
	b, c := newTestBuilder(t, cfg, tr)

	rec := types.NewSimulationRecord()
	rec.Set(types.FieldSimulationName, types.Text("RIT:BBH:0001-n100-id0"))
	seed := types.NewCatalogIndex()
	seed.Append(rec)
	require.NoError(t, c.EnsureLayout())
	require.NoError(t, c.StoreIndex(seed))

	idx, err := b.Crawl(context.Background(), CrawlOptions{NumToCrawl: 4})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len(), "index hits are not duplicated")
	assert.Equal(t, 1, b.Stats().FromIndex)
	for _, u := range tr.exists {
		assert.NotContains(t, u, "0001")
	}
}

func TestCrawlIndexConsistencyError(t *testing.T) {
	cfg := testConfig(t)
	b, c := newTestBuilder(t, cfg, newFakeTransport())

	rec := types.NewSimulationRecord()
	rec.Set(types.FieldSimulationName, types.Text("RIT:BBH:00010-n100-id0"))
	seed := types.NewCatalogIndex()
	seed.Append(rec)
	require.NoError(t, c.EnsureLayout())
	require.NoError(t, c.StoreIndex(seed))

	_, err := b.Crawl(context.Background(), CrawlOptions{NumToCrawl: 5})
	assert.ErrorIs(t, err, types.ErrIndexConsistency)
}

func TestCrawlPersistsAfterEachRecord(t *testing.T) {
	cfg := testConfig(t)
	tr := newFakeTransport()
	tr.addMetadata("RIT:BBH:0001-n100-id0_Metadata.txt", metadataBody("q1", 1))
	broken := "RIT:BBH:0002-n100-id0_Metadata.txt"
	tr.addMetadata(broken, metadataBody("q2", 2))
	tr.fetchErr[remoteURL(testBaseURL, remoteMetadataDir, broken)] = context.Canceled
	b, c := newTestBuilder(t, cfg, tr)

	_, err := b.Crawl(context.Background(), CrawlOptions{NumToCrawl: 3})
	require.ErrorIs(t, err, context.Canceled)

	stored, err := c.LoadIndex()
	require.NoError(t, err)
	assert.Equal(t, []string{"RIT:BBH:0001-n100-id0"}, stored.SimulationNames())
}

func TestCrawlWithoutCacheWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	cfg.UseCache = false
	tr := newFakeTransport()
	tr.addMetadata("RIT:BBH:0001-n100-id0_Metadata.txt", metadataBody("q1", 1))
	b, c := newTestBuilder(t, cfg, tr)

	idx, err := b.Crawl(context.Background(), CrawlOptions{NumToCrawl: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())

	_, err = os.Stat(c.CatalogDir())
	assert.True(t, os.IsNotExist(err))
}

func TestCrawlSkipsEmptyMetadata(t *testing.T) {
	cfg := testConfig(t)
	tr := newFakeTransport()
	tr.addMetadata("RIT:BBH:0001-n100-id0_Metadata.txt", "# only comments\n")
	tr.addMetadata("RIT:BBH:0001-n100-id1_Metadata.txt", metadataBody("q1", 1))
	b, c := newTestBuilder(t, cfg, tr)

	idx, err := b.Crawl(context.Background(), CrawlOptions{NumToCrawl: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"RIT:BBH:0001-n100-id1"}, idx.SimulationNames())
	assert.False(t, cache.ExistsNonEmpty(c.MetadataPath("RIT:BBH:0001-n100-id0_Metadata.txt")))
}

func TestRefreshRebuildsFromCache(t *testing.T) {
	cfg := testConfig(t)
	tr := newFakeTransport()
	b, c := newTestBuilder(t, cfg, tr)
	writeCached(t, c, "RIT:BBH:0001-n100-id0_Metadata.txt", metadataBody("q1", 1))
	writeCached(t, c, "RIT:eBBH:0003-n140-ecc_Metadata.txt", metadataBody("e3", 3))

	idx, err := b.Refresh(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"RIT:BBH:0001-n100-id0", "RIT:eBBH:0003-n140-ecc"}, idx.SimulationNames())
	assert.Zero(t, tr.calls())

	stored, err := c.LoadIndex()
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Len())
	assert.Same(t, idx, b.Index())
}

func TestCrawlDoesNotRewriteUnchangedIndex(t *testing.T) {
	cfg := testConfig(t)
	b, c := newTestBuilder(t, cfg, newFakeTransport())
	writeCached(t, c, "RIT:BBH:0001-n100-id0_Metadata.txt",
		"mass-ratio = 1.0\ncomment = \n")

	idx, err := b.Crawl(context.Background(), CrawlOptions{NumToCrawl: 3})
	require.NoError(t, err)
	require.Equal(t, 1, idx.Len())
	comment, ok := idx.At(0).Get("comment")
	require.True(t, ok)
	assert.Equal(t, types.Text(""), comment)

	stored, err := c.LoadIndex()
	require.NoError(t, err)
	require.Equal(t, 1, stored.Len())
	assert.True(t, idx.At(0).Equal(stored.At(0)), "stored row matches the crawled record")

	old := time.Unix(1_000_000_000, 0)
	require.NoError(t, os.Chtimes(c.IndexPath(), old, old))

	again, _ := newTestBuilder(t, cfg, newFakeTransport())
	_, err = again.Crawl(context.Background(), CrawlOptions{NumToCrawl: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, again.Stats().FromCache)

	info, err := os.Stat(c.IndexPath())
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old), "unchanged record is not persisted again")
}

func TestRemoteURLEscapesSpaces(t *testing.T) {
	got := remoteURL("https://x.test/", "Metadata", "RIT:BBH:0001-n 88-id0_Metadata.txt")
	assert.Equal(t, "https://x.test/Metadata/RIT:BBH:0001-n%2088-id0_Metadata.txt", got)
}

func TestStateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	state, err := LoadState(dir)
	require.NoError(t, err)
	assert.Nil(t, state)

	s := newCrawlState("RIT", fixedNow())
	s.Finish(fixedNow(), CrawlStats{Requested: 10, Records: 7, Probes: 40})
	require.NoError(t, SaveState(dir, s))

	got, err := LoadState(dir)
	require.NoError(t, err)
	assert.Equal(t, s.RunID, got.RunID)
	assert.Equal(t, 7, got.Stats.Records)
	assert.True(t, s.StartedAt.Equal(got.StartedAt))
}

func TestSaveStateOverwritesWithoutLeftovers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "RIT")

	first := newCrawlState("RIT", fixedNow())
	first.Finish(fixedNow(), CrawlStats{Records: 1})
	require.NoError(t, SaveState(dir, first))

	second := newCrawlState("RIT", fixedNow())
	second.Finish(fixedNow(), CrawlStats{Records: 5})
	require.NoError(t, SaveState(dir, second))

	got, err := LoadState(dir)
	require.NoError(t, err)
	assert.Equal(t, second.RunID, got.RunID)
	assert.Equal(t, 5, got.Stats.Records)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
	assert.Equal(t, StateFileName, entries[0].Name())
}
