package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Default catalog settings, matching the RIT catalog layout.
const (
	DefaultCatalogName        = "RIT"
	DefaultBaseURL            = "https://ccrgpages.rit.edu/~RITCatalog/"
	DefaultQuasicircularFmt   = "RIT:BBH:%04d-n%3d-id%d_Metadata.txt"
	DefaultEccentricFmt       = "RIT:eBBH:%04d-n%3d-ecc_Metadata.txt"
	DefaultWaveformFileFormat = "ExtrapStrain_%s-%s-%04d-n%d.h5"
	DefaultMaxIdentifier      = 6
	DefaultCacheDir           = "~/.nr_data"
	DefaultRetryAttempts      = 10
	DefaultRetryDelay         = 200 * time.Millisecond
	DefaultHTTPTimeout        = 60 * time.Second
)

// DefaultResolutions lists the grid resolutions probed when none are given.
var DefaultResolutions = []int{100, 120, 88, 118, 130, 140, 144, 160, 200}

// Config validation errors.
var (
	ErrCatalogNameEmpty     = errors.New("catalog name must not be empty")
	ErrBaseURLEmpty         = errors.New("base URL must not be empty")
	ErrTemplateInvalid      = errors.New("invalid file name template")
	ErrNoResolutions        = errors.New("at least one resolution is required")
	ErrInvalidResolution    = errors.New("resolutions must be positive")
	ErrMaxIdentifierInvalid = errors.New("max identifier must be positive")
	ErrRetryAttemptsInvalid = errors.New("retry attempts must be positive")
)

// RetryConfig bounds the retry loop around each network call.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay" yaml:"delay"`
}

// HTTPConfig holds transport settings.
type HTTPConfig struct {
	Timeout            time.Duration `mapstructure:"timeout" yaml:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// Config describes one remote catalog and the local cache that mirrors it.
//
// MetadataFileFormats holds two fmt templates: the quasicircular one, taking
// (index, resolution, identifier), and the eccentric one, taking (index,
// resolution). WaveformFileFormat takes (catalog, family, index, resolution).
type Config struct {
	CatalogName         string      `mapstructure:"catalog_name" yaml:"catalog_name"`
	BaseURL             string      `mapstructure:"base_url" yaml:"base_url"`
	MetadataFileFormats []string    `mapstructure:"metadata_file_formats" yaml:"metadata_file_formats"`
	WaveformFileFormat  string      `mapstructure:"waveform_file_format" yaml:"waveform_file_format"`
	Resolutions         []int       `mapstructure:"resolutions" yaml:"resolutions"`
	MaxIdentifier       int         `mapstructure:"max_identifier" yaml:"max_identifier"`
	CacheDir            string      `mapstructure:"cache_dir" yaml:"cache_dir"`
	UseCache            bool        `mapstructure:"use_cache" yaml:"use_cache"`
	Verbosity           int         `mapstructure:"verbosity" yaml:"verbosity"`
	LogFormat           string      `mapstructure:"log_format" yaml:"log_format"`
	Retry               RetryConfig `mapstructure:"retry" yaml:"retry"`
	HTTP                HTTPConfig  `mapstructure:"http" yaml:"http"`
}

// DefaultConfig returns the RIT catalog configuration.
func DefaultConfig() Config {
	res := make([]int, len(DefaultResolutions))
	copy(res, DefaultResolutions)
	return Config{
		CatalogName:         DefaultCatalogName,
		BaseURL:             DefaultBaseURL,
		MetadataFileFormats: []string{DefaultQuasicircularFmt, DefaultEccentricFmt},
		WaveformFileFormat:  DefaultWaveformFileFormat,
		Resolutions:         res,
		MaxIdentifier:       DefaultMaxIdentifier,
		CacheDir:            DefaultCacheDir,
		UseCache:            true,
		LogFormat:           "text",
		Retry: RetryConfig{
			MaxAttempts: DefaultRetryAttempts,
			Delay:       DefaultRetryDelay,
		},
		HTTP: HTTPConfig{
			Timeout: DefaultHTTPTimeout,
		},
	}
}

// QuasicircularFormat returns the metadata template for the identified family.
func (c Config) QuasicircularFormat() string {
	if len(c.MetadataFileFormats) > 0 {
		return c.MetadataFileFormats[0]
	}
	return ""
}

// EccentricFormat returns the metadata template for the eccentric family.
func (c Config) EccentricFormat() string {
	if len(c.MetadataFileFormats) > 1 {
		return c.MetadataFileFormats[1]
	}
	return ""
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package, wrapped with detail, on failure.
func (c Config) Validate() error {
	if c.CatalogName == "" {
		return ErrCatalogNameEmpty
	}
	if c.BaseURL == "" {
		return ErrBaseURLEmpty
	}
	if len(c.MetadataFileFormats) != 2 {
		return fmt.Errorf("%w: want 2 metadata templates, got %d", ErrTemplateInvalid, len(c.MetadataFileFormats))
	}
	if err := checkMetadataTemplate(fmt.Sprintf(c.QuasicircularFormat(), 1, 100, 0)); err != nil {
		return fmt.Errorf("quasicircular template %q: %w", c.QuasicircularFormat(), err)
	}
	if err := checkMetadataTemplate(fmt.Sprintf(c.EccentricFormat(), 1, 100)); err != nil {
		return fmt.Errorf("eccentric template %q: %w", c.EccentricFormat(), err)
	}
	if s := fmt.Sprintf(c.WaveformFileFormat, c.CatalogName, "BBH", 1, 100); strings.Contains(s, "%!") {
		return fmt.Errorf("%w: waveform template %q", ErrTemplateInvalid, c.WaveformFileFormat)
	}
	if len(c.Resolutions) == 0 {
		return ErrNoResolutions
	}
	for _, r := range c.Resolutions {
		if r <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidResolution, r)
		}
	}
	if c.MaxIdentifier <= 0 {
		return fmt.Errorf("%w: %d", ErrMaxIdentifierInvalid, c.MaxIdentifier)
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("%w: %d", ErrRetryAttemptsInvalid, c.Retry.MaxAttempts)
	}
	return nil
}

// checkMetadataTemplate inspects a formatted sample metadata file name. The
// simulation tag is the part before the first dash and the simulation name is
// the part before the _Metadata marker, so both must be present.
func checkMetadataTemplate(sample string) error {
	switch {
	case strings.Contains(sample, "%!"):
		return fmt.Errorf("%w: argument mismatch in %q", ErrTemplateInvalid, sample)
	case !strings.Contains(sample, "-"):
		return fmt.Errorf("%w: no dash in %q", ErrTemplateInvalid, sample)
	case !strings.Contains(sample, "_Metadata"):
		return fmt.Errorf("%w: no _Metadata marker in %q", ErrTemplateInvalid, sample)
	}
	return nil
}
