// Package config loads the nrmirror configuration from config.yaml in the
// configuration directory, NRMIRROR_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/nrmirror/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// FileName is the configuration file inside the configuration directory.
	FileName = "config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. NRMIRROR_RETRY_MAX_ATTEMPTS.
	EnvPrefix = "NRMIRROR"
)

// Configuration keys.
const (
	KeyCatalogName         = "catalog_name"
	KeyBaseURL             = "base_url"
	KeyMetadataFileFormats = "metadata_file_formats"
	KeyWaveformFileFormat  = "waveform_file_format"
	KeyResolutions         = "resolutions"
	KeyMaxIdentifier       = "max_identifier"
	KeyCacheDir            = "cache_dir"
	KeyUseCache            = "use_cache"
	KeyVerbosity           = "verbosity"
	KeyLogFormat           = "log_format"
	KeyRetryMaxAttempts    = "retry.max_attempts"
	KeyRetryDelay          = "retry.delay"
	KeyHTTPTimeout         = "http.timeout"
	KeyHTTPInsecure        = "http.insecure_skip_verify"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# nrmirror configuration
# Every key can be overridden with an NRMIRROR_ environment variable,
# e.g. NRMIRROR_CACHE_DIR or NRMIRROR_RETRY_MAX_ATTEMPTS.

catalog_name: RIT
base_url: https://ccrgpages.rit.edu/~RITCatalog/

# Metadata file templates: quasicircular (index, resolution, identifier)
# then eccentric (index, resolution).
metadata_file_formats:
  - "RIT:BBH:%04d-n%3d-id%d_Metadata.txt"
  - "RIT:eBBH:%04d-n%3d-ecc_Metadata.txt"
waveform_file_format: "ExtrapStrain_%s-%s-%04d-n%d.h5"

resolutions: [100, 120, 88, 118, 130, 140, 144, 160, 200]
max_identifier: 6

cache_dir: ~/.nr_data
use_cache: true

# 0 warnings only, 1-2 info, 3-4 debug, 5 and up trace.
verbosity: 0
log_format: text

retry:
  max_attempts: 10
  delay: 200ms

http:
  timeout: 60s
  insecure_skip_verify: false
`

// Loader layers defaults, config.yaml, environment and bound flags.
type Loader struct {
	v   *viper.Viper
	dir string
}

// NewLoader returns a Loader reading config.yaml from dir.
func NewLoader(dir string) *Loader {
	v := viper.New()
	setDefaults(v, types.DefaultConfig())
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v, dir: dir}
}

func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault(KeyCatalogName, d.CatalogName)
	v.SetDefault(KeyBaseURL, d.BaseURL)
	v.SetDefault(KeyMetadataFileFormats, d.MetadataFileFormats)
	v.SetDefault(KeyWaveformFileFormat, d.WaveformFileFormat)
	v.SetDefault(KeyResolutions, d.Resolutions)
	v.SetDefault(KeyMaxIdentifier, d.MaxIdentifier)
	v.SetDefault(KeyCacheDir, d.CacheDir)
	v.SetDefault(KeyUseCache, d.UseCache)
	v.SetDefault(KeyVerbosity, d.Verbosity)
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetDefault(KeyRetryMaxAttempts, d.Retry.MaxAttempts)
	v.SetDefault(KeyRetryDelay, d.Retry.Delay.String())
	v.SetDefault(KeyHTTPTimeout, d.HTTP.Timeout.String())
	v.SetDefault(KeyHTTPInsecure, d.HTTP.InsecureSkipVerify)
}

// BindFlag lets a command-line flag override key when the flag is set.
func (l *Loader) BindFlag(key string, f *pflag.Flag) error {
	if f == nil {
		return fmt.Errorf("binding %s: flag not defined", key)
	}
	return l.v.BindPFlag(key, f)
}

// Dir returns the configuration directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Load reads the layered configuration and validates it. A missing
// config.yaml is not an error.
func (l *Loader) Load() (types.Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// EnsureDefaultFile creates dir and writes the default config.yaml unless a
// file is already there. It reports whether it wrote.
func EnsureDefaultFile(dir string) (bool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return false, fmt.Errorf("write default config: %w", err)
	}
	return true, nil
}

// fileView is the YAML shape of a Config, with durations as strings so the
// output can be pasted back into config.yaml.
type fileView struct {
	CatalogName         string   `yaml:"catalog_name"`
	BaseURL             string   `yaml:"base_url"`
	MetadataFileFormats []string `yaml:"metadata_file_formats"`
	WaveformFileFormat  string   `yaml:"waveform_file_format"`
	Resolutions         []int    `yaml:"resolutions,flow"`
	MaxIdentifier       int      `yaml:"max_identifier"`
	CacheDir            string   `yaml:"cache_dir"`
	UseCache            bool     `yaml:"use_cache"`
	Verbosity           int      `yaml:"verbosity"`
	LogFormat           string   `yaml:"log_format"`
	Retry               struct {
		MaxAttempts int    `yaml:"max_attempts"`
		Delay       string `yaml:"delay"`
	} `yaml:"retry"`
	HTTP struct {
		Timeout            string `yaml:"timeout"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"http"`
}

// Marshal renders cfg as config.yaml content.
func Marshal(cfg types.Config) ([]byte, error) {
	view := fileView{
		CatalogName:         cfg.CatalogName,
		BaseURL:             cfg.BaseURL,
		MetadataFileFormats: cfg.MetadataFileFormats,
		WaveformFileFormat:  cfg.WaveformFileFormat,
		Resolutions:         cfg.Resolutions,
		MaxIdentifier:       cfg.MaxIdentifier,
		CacheDir:            cfg.CacheDir,
		UseCache:            cfg.UseCache,
		Verbosity:           cfg.Verbosity,
		LogFormat:           cfg.LogFormat,
	}
	view.Retry.MaxAttempts = cfg.Retry.MaxAttempts
	view.Retry.Delay = durationString(cfg.Retry.Delay)
	view.HTTP.Timeout = durationString(cfg.HTTP.Timeout)
	view.HTTP.InsecureSkipVerify = cfg.HTTP.InsecureSkipVerify
	return yaml.Marshal(view)
}

func durationString(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	return d.String()
}
