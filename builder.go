package authflow

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taxnova/authflow/api"
	"github.com/taxnova/authflow/credstore"
	"github.com/taxnova/authflow/token"
)

// Builder assembles an Engine. Zero-dependency use needs only a config with
// an API base URL; everything else has a default.
type Builder struct {
	config Config

	backend Backend
	creds   credstore.Store
	redis   *redis.Client
	prefix  string

	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with the default config.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's config.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBackend installs a custom backend, bypassing the HTTP client. The API
// base URL is then not required.
func (b *Builder) WithBackend(backend Backend) *Builder {
	b.backend = backend
	return b
}

// WithCredentialStore installs a custom credential store.
func (b *Builder) WithCredentialStore(store credstore.Store) *Builder {
	b.creds = store
	return b
}

// WithRedis stores credentials in redis under prefix instead of process
// memory. Ignored when WithCredentialStore is also used.
func (b *Builder) WithRedis(client *redis.Client, prefix string) *Builder {
	b.redis = client
	b.prefix = prefix
	return b
}

// WithAuditSink installs the audit destination and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles counter recording.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the restore latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithPostRegister sets the post-register behavior without replacing the
// whole config.
func (b *Builder) WithPostRegister(behavior PostRegisterBehavior) *Builder {
	b.config.Registration.PostRegister = behavior
	return b
}

// Build validates the configuration and returns a ready Engine in
// StatusLoading. A builder builds at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend := b.backend
	if backend == nil {
		if cfg.API.BaseURL == "" {
			return nil, errors.New("API BaseURL required when no backend is supplied")
		}
		client, err := api.NewClient(api.Config{
			BaseURL:   cfg.API.BaseURL,
			Timeout:   cfg.API.Timeout,
			UserAgent: cfg.API.UserAgent,
		})
		if err != nil {
			return nil, err
		}
		backend = client
	}

	creds := b.creds
	if creds == nil {
		if b.redis != nil {
			creds = credstore.NewRedis(b.redis, b.prefix)
		} else {
			creds = credstore.NewMemory()
		}
	}

	engine := &Engine{
		config:    cfg,
		backend:   backend,
		creds:     creds,
		inspector: token.NewInspector(cfg.Restore.ExpiryLeeway),
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:   NewMetrics(cfg.Metrics),
		status:    StatusLoading,
		now:       time.Now,
	}

	b.built = true

	return engine, nil
}
