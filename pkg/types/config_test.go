package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	withChange := func(f func(*Config)) Config {
		c := DefaultConfig()
		f(&c)
		return c
	}

	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "default config is valid",
			config:  DefaultConfig(),
			wantErr: nil,
		},
		{
			name:    "empty catalog name returns ErrCatalogNameEmpty",
			config:  withChange(func(c *Config) { c.CatalogName = "" }),
			wantErr: ErrCatalogNameEmpty,
		},
		{
			name:    "empty base URL returns ErrBaseURLEmpty",
			config:  withChange(func(c *Config) { c.BaseURL = "" }),
			wantErr: ErrBaseURLEmpty,
		},
		{
			name:    "single metadata template returns ErrTemplateInvalid",
			config:  withChange(func(c *Config) { c.MetadataFileFormats = c.MetadataFileFormats[:1] }),
			wantErr: ErrTemplateInvalid,
		},
		{
			name: "quasicircular template missing identifier verb",
			config: withChange(func(c *Config) {
				c.MetadataFileFormats[0] = "RIT:BBH:%04d-n%3d_Metadata.txt"
			}),
			wantErr: ErrTemplateInvalid,
		},
		{
			name: "eccentric template without metadata marker",
			config: withChange(func(c *Config) {
				c.MetadataFileFormats[1] = "RIT:eBBH:%04d-n%3d-ecc.txt"
			}),
			wantErr: ErrTemplateInvalid,
		},
		{
			name:    "waveform template with too many verbs",
			config:  withChange(func(c *Config) { c.WaveformFileFormat = "%s-%s-%d-%d-%d.h5" }),
			wantErr: ErrTemplateInvalid,
		},
		{
			name:    "no resolutions returns ErrNoResolutions",
			config:  withChange(func(c *Config) { c.Resolutions = nil }),
			wantErr: ErrNoResolutions,
		},
		{
			name:    "zero resolution returns ErrInvalidResolution",
			config:  withChange(func(c *Config) { c.Resolutions = []int{100, 0} }),
			wantErr: ErrInvalidResolution,
		},
		{
			name:    "zero max identifier returns ErrMaxIdentifierInvalid",
			config:  withChange(func(c *Config) { c.MaxIdentifier = 0 }),
			wantErr: ErrMaxIdentifierInvalid,
		},
		{
			name:    "zero retry attempts returns ErrRetryAttemptsInvalid",
			config:  withChange(func(c *Config) { c.Retry.MaxAttempts = 0 }),
			wantErr: ErrRetryAttemptsInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigResolutionsAreCopied(t *testing.T) {
	c := DefaultConfig()
	c.Resolutions[0] = 1
	if DefaultResolutions[0] != 100 {
		t.Fatalf("DefaultConfig shares the DefaultResolutions slice")
	}
}
