package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/mesh-intelligence/nrmirror/internal/cache"
)

// StateFileName is the crawl summary kept next to the metadata directory.
const StateFileName = "crawl.state.toml"

// CrawlState records the outcome of the most recent completed crawl.
type CrawlState struct {
	Version    int        `toml:"version" json:"version"`
	Catalog    string     `toml:"catalog" json:"catalog"`
	RunID      string     `toml:"run_id" json:"run_id"`
	StartedAt  time.Time  `toml:"started_at" json:"started_at"`
	FinishedAt time.Time  `toml:"finished_at" json:"finished_at"`
	Stats      CrawlStats `toml:"stats" json:"stats"`
}

func newCrawlState(catalog string, now time.Time) *CrawlState {
	return &CrawlState{
		Version:   1,
		Catalog:   catalog,
		RunID:     newRunID(),
		StartedAt: now,
	}
}

// Finish stamps the end time and final counters.
func (s *CrawlState) Finish(now time.Time, stats CrawlStats) {
	s.FinishedAt = now
	s.Stats = stats
}

// newRunID returns a time-ordered UUID, falling back to a random one.
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// LoadState reads the state file from the catalog directory. It returns nil
// and no error when no crawl has finished yet.
func LoadState(dir string) (*CrawlState, error) {
	data, err := os.ReadFile(filepath.Join(dir, StateFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	var state CrawlState
	if err := toml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}
	return &state, nil
}

// SaveState writes the state file through the cache's atomic writer, the
// same path the index and metadata files take.
func SaveState(dir string, state *CrawlState) error {
	data, err := toml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if _, err := cache.WriteFile(filepath.Join(dir, StateFileName), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}
