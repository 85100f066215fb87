package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Default configuration values.
const (
	defaultServiceName = "world-intel"
	defaultServicePort = 8097
	defaultVersion     = "0.1.0"

	defaultLoggingLevel = "info"

	defaultMaxPerSource   = 120
	defaultFeedTimeout    = 8 * time.Second
	defaultFeedAttempts   = 3
	defaultFirstSeenTTL   = 7 * 24 * time.Hour
	defaultClusterTTL     = 7 * 24 * time.Hour
	defaultWarmCron       = "*/10 * * * *"
	defaultWarmSinceHours = 12
	defaultWarmLimit      = 60

	defaultEnrichMax        = 25
	defaultEnrichTTLSeconds = 3600
	defaultEnrichTimeout    = 8 * time.Second

	defaultStreamIntervalMs = 4000
	defaultStreamMaxAge     = 90 * time.Second
)

// Config holds the application configuration.
type Config struct {
	Service Service `yaml:"service"`
	Logging Logging `yaml:"logging"`
	Redis   Redis   `yaml:"redis"`
	Feeds   Feeds   `yaml:"feeds"`
	Enrich  Enrich  `yaml:"enrich"`
	Stream  Stream  `yaml:"stream"`
}

// Service holds service-level configuration.
type Service struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"PORT"       yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"  yaml:"debug"`
	// APISecret enables HMAC response signing when non-empty.
	APISecret string `env:"API_SECRET" yaml:"api_secret"`
}

// Logging holds logging configuration.
type Logging struct {
	Level string `env:"LOG_LEVEL" yaml:"level"`
}

// Redis holds the KV store connection configuration. An empty address
// selects the in-memory store.
type Redis struct {
	Address  string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB"       yaml:"db"`
}

// Feeds holds fetch and aggregation configuration.
type Feeds struct {
	// MaxPerSource caps parsed entries per feed.
	MaxPerSource int `yaml:"max_per_source"`
	// Timeout is the per-attempt fetch timeout.
	Timeout time.Duration `env:"FEED_TIMEOUT" yaml:"timeout"`
	// Attempts is the number of fetch attempts per feed.
	Attempts int `yaml:"attempts"`
	// FirstSeenTTL bounds first-seen KV records.
	FirstSeenTTL time.Duration `yaml:"first_seen_ttl"`
	// ClusterTTL bounds cluster-memory KV records.
	ClusterTTL time.Duration `yaml:"cluster_ttl"`
	// WarmCron is the warm-cache schedule.
	WarmCron       string `yaml:"warm_cron"`
	WarmSinceHours int    `yaml:"warm_since_hours"`
	WarmLimit      int    `yaml:"warm_limit"`
}

// Enrich holds AI enrichment configuration.
type Enrich struct {
	// MaxItems caps how many items are enriched per request.
	MaxItems int `env:"MAX_HF_ENRICH" yaml:"max_items"`
	// CacheTTLSeconds bounds enrichment cache entries.
	CacheTTLSeconds int `env:"ENRICH_TTL_SECONDS" yaml:"cache_ttl_seconds"`
	// TaskTimeout is the hard per-task timeout.
	TaskTimeout time.Duration `yaml:"task_timeout"`
	// TokensJSON is an ordered JSON array of credentials.
	TokensJSON string `env:"HF_TOKENS_JSON" yaml:"-"`
	// UseEndpoints treats model identifiers as full URLs.
	UseEndpoints bool `env:"HF_USE_ENDPOINTS" yaml:"use_endpoints"`
	// Models maps task names to model identifiers.
	Models ModelSet `yaml:"models"`
}

// ModelSet names the model used for each enrichment task.
type ModelSet struct {
	LangDetect string `yaml:"lang_detect"`
	Translate  string `yaml:"translate"`
	ZeroShot   string `yaml:"zero_shot"`
	Summary    string `yaml:"summary"`
	Sentiment  string `yaml:"sentiment"`
	NER        string `yaml:"ner"`
}

// Stream holds SSE streamer configuration.
type Stream struct {
	// IntervalMs is the default tick interval; clients may override within
	// the clamp range.
	IntervalMs int `yaml:"interval_ms"`
	// MaxAge is the edge connection ceiling after which streams close.
	MaxAge time.Duration `yaml:"max_age"`
}

// Load loads configuration from the given path (optional) plus environment.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	// Env always wins, including over defaults.
	applyEnv(&cfg)
	return &cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Service.Port <= 0 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}
	if c.Feeds.Attempts < 1 {
		return fmt.Errorf("feed attempts must be >= 1, got %d", c.Feeds.Attempts)
	}
	if c.Enrich.MaxItems < 0 {
		return fmt.Errorf("enrich max items must be >= 0, got %d", c.Enrich.MaxItems)
	}
	return nil
}

// EnrichTokens returns the ordered credential pool: HF_TOKENS_JSON if set,
// otherwise numbered HF_TOKEN_* scalars sorted by suffix.
func (c *Config) EnrichTokens() []string {
	if c.Enrich.TokensJSON != "" {
		if tokens := parseTokensJSON(c.Enrich.TokensJSON); len(tokens) > 0 {
			return tokens
		}
	}

	type kv struct{ key, val string }
	var scalars []kv
	for _, entry := range os.Environ() {
		key, val, ok := strings.Cut(entry, "=")
		if !ok || val == "" {
			continue
		}
		if strings.HasPrefix(key, "HF_TOKEN_") {
			scalars = append(scalars, kv{key, val})
		}
	}
	sort.Slice(scalars, func(i, j int) bool { return scalars[i].key < scalars[j].key })

	tokens := make([]string, 0, len(scalars))
	for _, s := range scalars {
		tokens = append(tokens, s.val)
	}
	return tokens
}

func (c *Config) setDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = defaultServiceName
	}
	if c.Service.Version == "" {
		c.Service.Version = defaultVersion
	}
	if c.Service.Port == 0 {
		c.Service.Port = defaultServicePort
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLoggingLevel
	}

	setFeedDefaults(&c.Feeds)
	setEnrichDefaults(&c.Enrich)

	if c.Stream.IntervalMs == 0 {
		c.Stream.IntervalMs = defaultStreamIntervalMs
	}
	if c.Stream.MaxAge == 0 {
		c.Stream.MaxAge = defaultStreamMaxAge
	}
}

func setFeedDefaults(f *Feeds) {
	if f.MaxPerSource == 0 {
		f.MaxPerSource = defaultMaxPerSource
	}
	if f.Timeout == 0 {
		f.Timeout = defaultFeedTimeout
	}
	if f.Attempts == 0 {
		f.Attempts = defaultFeedAttempts
	}
	if f.FirstSeenTTL == 0 {
		f.FirstSeenTTL = defaultFirstSeenTTL
	}
	if f.ClusterTTL == 0 {
		f.ClusterTTL = defaultClusterTTL
	}
	if f.WarmCron == "" {
		f.WarmCron = defaultWarmCron
	}
	if f.WarmSinceHours == 0 {
		f.WarmSinceHours = defaultWarmSinceHours
	}
	if f.WarmLimit == 0 {
		f.WarmLimit = defaultWarmLimit
	}
}

func setEnrichDefaults(e *Enrich) {
	if e.MaxItems == 0 {
		e.MaxItems = defaultEnrichMax
	}
	if e.CacheTTLSeconds == 0 {
		e.CacheTTLSeconds = defaultEnrichTTLSeconds
	}
	if e.TaskTimeout == 0 {
		e.TaskTimeout = defaultEnrichTimeout
	}

	m := &e.Models
	if m.LangDetect == "" {
		m.LangDetect = "papluca/xlm-roberta-base-language-detection"
	}
	if m.Translate == "" {
		m.Translate = "Helsinki-NLP/opus-mt-mul-en"
	}
	if m.ZeroShot == "" {
		m.ZeroShot = "facebook/bart-large-mnli"
	}
	if m.Summary == "" {
		m.Summary = "facebook/bart-large-cnn"
	}
	if m.Sentiment == "" {
		m.Sentiment = "cardiffnlp/twitter-xlm-roberta-base-sentiment"
	}
	if m.NER == "" {
		m.NER = "dslim/bert-base-NER"
	}
}
