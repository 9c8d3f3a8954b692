package matio

import (
	"log/slog"
	"time"

	"github.com/hupe1980/matio/catalog"
	"github.com/hupe1980/matio/internal/fs"
	"github.com/hupe1980/matio/persistence"
	"github.com/hupe1980/matio/resource"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	compression      persistence.Compression
	resources        *resource.Controller
	concurrency      int
	catalog          catalog.Catalog
	sync             bool
	fsys             fs.FileSystem
	now              func() time.Time
}

// Option configures a Codec or Store.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
//	logger := matio.NewJSONLogger(slog.LevelDebug)
//	c := matio.New(matio.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithCompression selects payload compression for saves. Loads always
// accept every compression. Default: persistence.CompressionNone.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMetricsCollector enables metrics collection.
//
//	metrics := &matio.BasicMetricsCollector{}
//	c := matio.New(matio.WithMetricsCollector(metrics))
//	// ... use c ...
//	fmt.Println(metrics.GetStats().SavedBytes)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithResourceController throttles IO and bounds the memory held by
// SaveMatrixFiles.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithConcurrency sets how many source files SaveMatrixFiles loads in
// parallel. Values < 1 mean the resource controller's setting (default 4).
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithCatalog makes Store record an entry for every successful save.
func WithCatalog(c catalog.Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// WithSync fsyncs saved files and their directory before returning.
func WithSync(enabled bool) Option {
	return func(o *options) {
		o.sync = enabled
	}
}

func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		compression:      persistence.CompressionNone,
		fsys:             fs.Default,
		now:              time.Now,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.concurrency < 1 {
		o.concurrency = o.resources.Concurrency()
	}
	return o
}
