// Package config provides configuration management for the concept graph
// service: defaults, a YAML file hierarchy (base, environment, local) and
// environment variable overrides, highest priority last.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// Std returns the value as a standard time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Environment is the deployment environment
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// LexiconSource selects the lexicon adapter
type LexiconSource string

const (
	LexiconStatic LexiconSource = "static"
	LexiconRemote LexiconSource = "remote"
)

// Config is the root configuration for the service
type Config struct {
	Environment Environment `yaml:"environment"`

	Server      ServerConfig      `yaml:"server"`
	Lexicon     LexiconConfig     `yaml:"lexicon"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Logging     LoggingConfig     `yaml:"logging"`
	Features    Features          `yaml:"features"`

	// LoadedFrom records the sources that contributed, for diagnostics
	LoadedFrom []string `yaml:"-"`
}

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"readTimeout"`
	WriteTimeout    Duration `yaml:"writeTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
	RequestTimeout  Duration `yaml:"requestTimeout"`
}

// LexiconConfig selects and configures the lexicon oracle
type LexiconConfig struct {
	Source     LexiconSource `yaml:"source"`
	CorpusPath string        `yaml:"corpusPath"`
	BaseURL    string        `yaml:"baseURL"`

	RequestTimeout Duration `yaml:"requestTimeout"`

	// Circuit breaker settings for the remote source
	BreakerMaxRequests      uint32   `yaml:"breakerMaxRequests"`
	BreakerInterval         Duration `yaml:"breakerInterval"`
	BreakerTimeout          Duration `yaml:"breakerTimeout"`
	BreakerFailureThreshold float64  `yaml:"breakerFailureThreshold"`
	BreakerMinRequests      uint32   `yaml:"breakerMinRequests"`
}

// PersistenceConfig configures the graph document store
type PersistenceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures zap
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Features contains feature flags for the application
type Features struct {
	EnableMetrics     bool `yaml:"enableMetrics"`
	EnableHotReload   bool `yaml:"enableHotReload"`
	EnableSaveOnWrite bool `yaml:"enableSaveOnWrite"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(15 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
			RequestTimeout:  Duration(30 * time.Second),
		},
		Lexicon: LexiconConfig{
			Source:                  LexiconStatic,
			CorpusPath:              "config/lexicon.yaml",
			RequestTimeout:          Duration(5 * time.Second),
			BreakerMaxRequests:      5,
			BreakerInterval:         Duration(30 * time.Second),
			BreakerTimeout:          Duration(60 * time.Second),
			BreakerFailureThreshold: 0.8,
			BreakerMinRequests:      5,
		},
		Persistence: PersistenceConfig{
			Enabled: true,
			Path:    "data/graph.json",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Features: Features{
			EnableMetrics:     true,
			EnableHotReload:   false,
			EnableSaveOnWrite: true,
		},
	}
}

// Load builds the configuration from defaults, the YAML file hierarchy under
// dir (base.yaml, <environment>.yaml, local.yaml) and environment variables,
// in that order of increasing priority.
func Load(dir string) (*Config, error) {
	cfg := Default()
	cfg.LoadedFrom = []string{"defaults"}

	if dir == "" {
		dir = os.Getenv("CONFIG_DIR")
	}
	if dir == "" {
		dir = "config"
	}

	env := Environment(os.Getenv("APP_ENV"))
	if env != "" {
		cfg.Environment = env
	}

	if err := cfg.loadFile(filepath.Join(dir, "base.yaml")); err != nil {
		return nil, err
	}
	if err := cfg.loadFile(filepath.Join(dir, strings.ToLower(string(cfg.Environment))+".yaml")); err != nil {
		return nil, err
	}
	if cfg.Environment == Development {
		if err := cfg.loadFile(filepath.Join(dir, "local.yaml")); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvironment()
	cfg.LoadedFrom = append(cfg.LoadedFrom, "environment")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays one YAML file onto the config; a missing file is not an
// error.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	c.LoadedFrom = append(c.LoadedFrom, path)
	return nil
}

// applyEnvironment applies environment variable overrides, highest priority.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LEXICON_SOURCE"); v != "" {
		c.Lexicon.Source = LexiconSource(v)
	}
	if v := os.Getenv("LEXICON_CORPUS_PATH"); v != "" {
		c.Lexicon.CorpusPath = v
	}
	if v := os.Getenv("LEXICON_BASE_URL"); v != "" {
		c.Lexicon.BaseURL = v
	}
	if v := os.Getenv("GRAPH_DOCUMENT_PATH"); v != "" {
		c.Persistence.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ENABLE_METRICS"); v != "" {
		c.Features.EnableMetrics = v == "true"
	}
	if v := os.Getenv("ENABLE_PERSISTENCE"); v != "" {
		c.Persistence.Enabled = v == "true"
	}
	if v := os.Getenv("BREAKER_MIN_REQUESTS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			c.Lexicon.BreakerMinRequests = uint32(n)
		}
	}
}

// validate rejects configurations the service cannot start with.
func (c *Config) validate() error {
	switch c.Environment {
	case Development, Staging, Production:
	default:
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	switch c.Lexicon.Source {
	case LexiconStatic:
		if c.Lexicon.CorpusPath == "" {
			return fmt.Errorf("static lexicon requires a corpus path")
		}
	case LexiconRemote:
		if c.Lexicon.BaseURL == "" {
			return fmt.Errorf("remote lexicon requires a base URL")
		}
	default:
		return fmt.Errorf("unknown lexicon source %q", c.Lexicon.Source)
	}
	if c.Persistence.Enabled && c.Persistence.Path == "" {
		return fmt.Errorf("persistence requires a document path")
	}
	return nil
}
