// Package config loads x-scraper settings from defaults, an optional YAML
// file, a .env file and the process environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"xscraper/internal/core/domain"
)

// Default configuration values
const (
	DefaultParallelWorkers = 5
	DefaultMaxRetry        = 5
	DefaultRetryWait       = 10 * time.Second
	DefaultRetryMaxWait    = 30 * time.Second
	DefaultBirdTimeout     = 60 * time.Second
	DefaultBirdPath        = "bird"
	DefaultOutputDir       = "output"
	DefaultLogLevel        = "info"

	// DefaultConfigFile is read from the working directory when
	// X_SCRAPER_CONFIG is not set.
	DefaultConfigFile = "x-scraper.yaml"
)

// Settings holds every tunable of the scraper. Durations are stored in
// seconds in the YAML file.
type Settings struct {
	AuthToken string `yaml:"auth_token"`
	CT0       string `yaml:"ct0"`
	ProxyURL  string `yaml:"proxy_url"`

	ParallelWorkers int               `yaml:"parallel_workers"`
	MaxRetry        int               `yaml:"max_retry"`
	RetryWait       float64           `yaml:"retry_wait"`
	RetryMaxWait    float64           `yaml:"retry_max_wait"`
	BirdTimeout     float64           `yaml:"bird_timeout"`
	BirdPath        string            `yaml:"bird_path"`
	SpawnRate       float64           `yaml:"spawn_rate"`
	AuthPolicy      domain.AuthPolicy `yaml:"auth_policy"`

	OutputDir   string `yaml:"output_dir"`
	CookiesFile string `yaml:"cookies_file"`
	LogLevel    string `yaml:"log_level"`
}

// Default returns settings with every default filled in.
func Default() *Settings {
	return &Settings{
		ParallelWorkers: DefaultParallelWorkers,
		MaxRetry:        DefaultMaxRetry,
		RetryWait:       DefaultRetryWait.Seconds(),
		RetryMaxWait:    DefaultRetryMaxWait.Seconds(),
		BirdTimeout:     DefaultBirdTimeout.Seconds(),
		BirdPath:        DefaultBirdPath,
		AuthPolicy:      domain.AuthFailSoft,
		OutputDir:       DefaultOutputDir,
		LogLevel:        DefaultLogLevel,
	}
}

// Load builds Settings. The .env file and YAML file are optional; a YAML
// file named explicitly via X_SCRAPER_CONFIG must exist.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
		logrus.Debug(".env file not found, continuing with environment variables")
	}

	s := Default()

	path, explicit := os.LookupEnv("X_SCRAPER_CONFIG")
	if !explicit {
		path = DefaultConfigFile
	}
	if err := s.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := s.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(s); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	logrus.WithField("path", path).Debug("Loaded config file")
	return nil
}

// applyEnv overrides fields from lookup (os.LookupEnv in production).
func (s *Settings) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s must be an integer, got %q", key, v)
		}
		*dst = n
		return nil
	}
	float := func(key string, dst *float64) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("config: %s must be a number, got %q", key, v)
		}
		*dst = n
		return nil
	}

	str("AUTH_TOKEN", &s.AuthToken)
	str("CT0", &s.CT0)
	str("PROXY_URL", &s.ProxyURL)
	str("BIRD_PATH", &s.BirdPath)
	str("OUTPUT_DIR", &s.OutputDir)
	str("COOKIES_FILE", &s.CookiesFile)
	str("LOG_LEVEL", &s.LogLevel)
	if v, ok := lookup("AUTH_POLICY"); ok && v != "" {
		s.AuthPolicy = domain.AuthPolicy(v)
	}

	for _, f := range []func() error{
		func() error { return integer("PARALLEL_WORKERS", &s.ParallelWorkers) },
		func() error { return integer("MAX_RETRY", &s.MaxRetry) },
		func() error { return float("RETRY_WAIT", &s.RetryWait) },
		func() error { return float("RETRY_MAX_WAIT", &s.RetryMaxWait) },
		func() error { return float("BIRD_TIMEOUT", &s.BirdTimeout) },
		func() error { return float("SPAWN_RATE", &s.SpawnRate) },
	} {
		if err := f(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the settings:
//   - ParallelWorkers must be at least 1
//   - MaxRetry, RetryWait and SpawnRate must not be negative
//   - BirdTimeout must be at least 1 second
//   - AuthPolicy must be fail-soft or fail-fast, in any case; it is lowercased in place
//   - LogLevel must be a logrus level
func (s *Settings) Validate() error {
	if s.ParallelWorkers < 1 {
		return fmt.Errorf("config: parallel workers must be at least 1, got %d", s.ParallelWorkers)
	}
	if s.MaxRetry < 0 {
		return fmt.Errorf("config: max retry must not be negative, got %d", s.MaxRetry)
	}
	if s.RetryWait < 0 || s.RetryMaxWait < 0 {
		return fmt.Errorf("config: retry waits must not be negative")
	}
	if s.BirdTimeout < 1 {
		return fmt.Errorf("config: bird timeout must be at least 1 second, got %v", s.BirdTimeout)
	}
	if s.SpawnRate < 0 {
		return fmt.Errorf("config: spawn rate must not be negative, got %v", s.SpawnRate)
	}
	s.AuthPolicy = domain.AuthPolicy(strings.ToLower(strings.TrimSpace(string(s.AuthPolicy))))
	switch s.AuthPolicy {
	case domain.AuthFailSoft, domain.AuthFailFast:
	default:
		return fmt.Errorf("config: auth policy must be %q or %q, got %q", domain.AuthFailSoft, domain.AuthFailFast, s.AuthPolicy)
	}
	if _, err := logrus.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// HasCookies reports whether both auth cookies are configured.
func (s *Settings) HasCookies() bool {
	return s.AuthToken != "" && s.CT0 != ""
}

// RetryWaitDuration is the backoff base.
func (s *Settings) RetryWaitDuration() time.Duration {
	return seconds(s.RetryWait)
}

// RetryMaxWaitDuration caps a single backoff delay.
func (s *Settings) RetryMaxWaitDuration() time.Duration {
	return seconds(s.RetryMaxWait)
}

// BirdTimeoutDuration bounds one external tool invocation.
func (s *Settings) BirdTimeoutDuration() time.Duration {
	return seconds(s.BirdTimeout)
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
