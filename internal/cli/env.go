package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nrmirror/internal/cache"
	"github.com/mesh-intelligence/nrmirror/internal/catalog"
	"github.com/mesh-intelligence/nrmirror/internal/config"
	"github.com/mesh-intelligence/nrmirror/internal/logging"
	"github.com/mesh-intelligence/nrmirror/internal/paths"
	"github.com/mesh-intelligence/nrmirror/internal/transport"
	"github.com/mesh-intelligence/nrmirror/pkg/types"
)

// env is the wired application shared by the catalog commands.
type env struct {
	configDir string
	cfg       types.Config
	logger    *slog.Logger
	cache     *cache.Cache
	builder   *catalog.Builder
}

// configErrors are validation failures the user fixes in config.yaml.
var configErrors = []error{
	types.ErrCatalogNameEmpty,
	types.ErrBaseURLEmpty,
	types.ErrTemplateInvalid,
	types.ErrNoResolutions,
	types.ErrInvalidResolution,
	types.ErrMaxIdentifierInvalid,
	types.ErrRetryAttemptsInvalid,
}

// loadConfig resolves the configuration directory, writes a default
// config.yaml on first run, and loads the layered configuration with the
// global flags applied.
func loadConfig(cmd *cobra.Command) (string, types.Config, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return "", types.Config{}, fmt.Errorf("resolve config dir: %w", err)
	}
	if _, err := config.EnsureDefaultFile(configDir); err != nil {
		return "", types.Config{}, err
	}

	loader := config.NewLoader(configDir)
	pf := cmd.Root().PersistentFlags()
	for key, name := range map[string]string{
		config.KeyCacheDir:  "cache-dir",
		config.KeyVerbosity: "verbose",
		config.KeyLogFormat: "log-format",
	} {
		if err := loader.BindFlag(key, pf.Lookup(name)); err != nil {
			return "", types.Config{}, err
		}
	}

	cfg, err := loader.Load()
	if err != nil {
		for _, target := range configErrors {
			if errors.Is(err, target) {
				return "", types.Config{}, userError{fmt.Errorf("%s: %w", loader.Dir(), err)}
			}
		}
		return "", types.Config{}, err
	}
	if flags.noCache {
		cfg.UseCache = false
	}

	root, err := paths.ResolveCacheDir("", cfg.CacheDir)
	if err != nil {
		return "", types.Config{}, fmt.Errorf("resolve cache dir: %w", err)
	}
	cfg.CacheDir = root
	return configDir, cfg, nil
}

// newEnv wires configuration, logging, cache, transport and builder.
func newEnv(cmd *cobra.Command) (*env, error) {
	configDir, cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := logging.New(cmd.ErrOrStderr(), logging.Options{Verbosity: cfg.Verbosity, Format: cfg.LogFormat})

	c := cache.New(cfg.CacheDir, cfg.CatalogName)
	client := transport.New(cfg, transport.WithLogger(logger))
	logger.Debug("configuration loaded", "config_dir", configDir, "cache", c.CatalogDir(), "use_cache", cfg.UseCache)

	return &env{
		configDir: configDir,
		cfg:       cfg,
		logger:    logger,
		cache:     c,
		builder:   catalog.NewBuilder(cfg, c, client, logger),
	}, nil
}

// wrapDomainError marks errors that stem from bad input as user errors.
func wrapDomainError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, types.ErrNameFormat) {
		return userError{err}
	}
	return err
}
