package modes

import (
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/iosifache/booksearch/internal/logger"
	"github.com/iosifache/booksearch/internal/openlibrary"
	"github.com/iosifache/booksearch/internal/search"
	"github.com/iosifache/booksearch/internal/version"
)

const envPrefix = "BOOKSEARCH"

type Env struct {
	DefaultPageSize int           `mapstructure:"default_page_size"`
	Endpoint        string        `mapstructure:"endpoint"`
	Timeout         time.Duration `mapstructure:"timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFile         string        `mapstructure:"log_file"`
	SessionFile     string        `mapstructure:"session_file"`
}

// LoadEnv resolves the configuration from multiple sources in order of priority:
// 1. Environment variables (BOOKSEARCH_DEFAULT_PAGE_SIZE, BOOKSEARCH_ENDPOINT, ...),
//    including those loaded from .env
// 2. The config file: configFile if given, else booksearch.toml in the
//    working directory or ~/.config/booksearch
// 3. Built-in defaults
func LoadEnv(configFile string) (*Env, error) {
	v := viper.New()

	v.SetDefault("default_page_size", search.DefaultPageSize)
	v.SetDefault("endpoint", openlibrary.DefaultEndpoint)
	v.SetDefault("timeout", openlibrary.DefaultTimeout)
	v.SetDefault("user_agent", "booksearch/"+version.GetVersion())
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("session_file", defaultSessionFile())

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("booksearch")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	} else {
		logger.GetLogger().Debug("Loaded config file", zap.String("path", v.ConfigFileUsed()))
	}

	var env Env
	if err := v.Unmarshal(&env); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := env.validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

func (e *Env) validate() error {
	if e.DefaultPageSize <= 0 {
		return errors.Errorf("default_page_size must be positive, got %d", e.DefaultPageSize)
	}
	if e.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", e.Timeout)
	}
	u, err := url.Parse(e.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("endpoint must be an absolute URL, got %q", e.Endpoint)
	}
	return nil
}

// SearchConfig is the reconciler configuration derived from the env.
func (e *Env) SearchConfig() search.Config {
	return search.Config{DefaultPageSize: e.DefaultPageSize}
}

// Searcher builds the OpenLibrary client for the env.
func (e *Env) Searcher() *openlibrary.Client {
	return openlibrary.NewClient(e.Endpoint, e.Timeout, e.UserAgent)
}

// ConfigureLogger points the process logger at the configured sinks.
// fallbackPaths are used when no log file is configured.
func (e *Env) ConfigureLogger(fallbackPaths ...string) error {
	opts := logger.Options{Level: e.LogLevel, OutputPaths: fallbackPaths}
	if e.LogFile != "" {
		opts.OutputPaths = []string{e.LogFile}
	}
	return logger.Configure(opts)
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "booksearch")
}

func defaultSessionFile() string {
	dir := configDir()
	if dir == "" {
		return "booksearch-session.toml"
	}
	return filepath.Join(dir, "session.toml")
}
