package helix

import (
	"go.uber.org/zap"

	"github.com/helixsave/helix/format"
	"github.com/helixsave/helix/internal/options"
)

// config carries the per-call behavior switches for saves and loads.
type config struct {
	portable bool
	backup   bool
	compress bool
	logger   *zap.Logger
}

// Option configures a single Save, Load, or Extract call.
type Option = options.Option[*config]

func newConfig() *config {
	return &config{
		portable: true,
		backup:   true,
		compress: true,
		logger:   zap.NewNop(),
	}
}

func applyOptions(opts []Option) *config {
	cfg := newConfig()
	options.Apply(cfg, opts...)

	return cfg
}

func (c *config) compression() format.CompressionType {
	if c.compress {
		return format.CompressionLZ4
	}

	return format.CompressionNone
}

func (c *config) flags() byte {
	if c.compress {
		return format.FlagCompressed
	}

	return 0
}

// WithPortable selects the signing key: true (the default) uses the global
// compiled-in key, making files verifiable on any install; false uses the
// per-install machine key, so files copied elsewhere are rejected.
func WithPortable(portable bool) Option {
	return options.Of(func(c *config) {
		c.portable = portable
	})
}

// WithBackup controls whether a save preserves the previous target contents
// at the ".bak" sibling. Enabled by default.
func WithBackup(backup bool) Option {
	return options.Of(func(c *config) {
		c.backup = backup
	})
}

// WithCompression controls whether the payload is stored under the
// block-array LZ4 framing. Enabled by default; disable it to keep the file
// open for external MessagePack tooling. Load calls ignore this option, as
// the stored flags decide the decode path.
func WithCompression(compress bool) Option {
	return options.Of(func(c *config) {
		c.compress = compress
	})
}

// WithLogger attaches a diagnostic logger. The engine is silent by default;
// with a logger, loads report rejection reasons and backup fallbacks at
// Debug level.
func WithLogger(logger *zap.Logger) Option {
	return options.Of(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}
