// Package config loads the settings shared by the CLI and embedders of the
// session tracker. Sources are applied in order, later ones winning:
// built-in defaults, a YAML file, a .env file, then JIANSHU_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/haikuowuya/jianshu/internal/client"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "JIANSHU_"

var (
	// ErrEmptyDomain is returned when no cookie domain is configured.
	ErrEmptyDomain = errors.New("domain must not be empty")

	// ErrInvalidBaseURL is returned when the base URL is not absolute.
	ErrInvalidBaseURL = errors.New("base url must be an absolute http(s) url")

	// ErrDomainMismatch is returned when the base URL host is outside the
	// cookie domain, which would keep session cookies off every request.
	ErrDomainMismatch = errors.New("base url host does not match domain")

	// ErrInvalidTimeout is returned for a negative timeout.
	ErrInvalidTimeout = errors.New("timeout must not be negative")
)

// Config holds the tracker, cookie source and client settings.
type Config struct {
	Domain string `yaml:"domain" env:"DOMAIN"`

	// BaseURL defaults to https://<Domain>/. Its host must be Domain or a
	// subdomain of it.
	BaseURL string `yaml:"base_url" env:"BASE_URL"`

	// CookieDir holds the file cookie store. Ignored when RedisAddr is set.
	CookieDir string `yaml:"cookie_dir" env:"COOKIE_DIR"`
	RedisAddr string `yaml:"redis_addr" env:"REDIS_ADDR"`

	CacheMode string        `yaml:"cache_mode" env:"CACHE_MODE"`
	CacheDir  string        `yaml:"cache_dir" env:"CACHE_DIR"`
	Timeout   time.Duration `yaml:"timeout" env:"TIMEOUT"`

	Telemetry   bool    `yaml:"telemetry" env:"TELEMETRY"`
	SampleRatio float64 `yaml:"sample_ratio" env:"SAMPLE_RATIO"`
}

// LoadOptions name the optional files read by Load. Missing files are skipped.
type LoadOptions struct {
	File    string
	EnvFile string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Domain:      "jianshu.io",
		CacheMode:   string(client.CacheNone),
		Timeout:     30 * time.Second,
		SampleRatio: 1,
	}
}

// Load builds a Config from defaults, opts.File, opts.EnvFile and the environment.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file %s: %w", opts.File, err)
			}
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if c.Domain == "" {
		return ErrEmptyDomain
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
		}
		if !domainMatch(u.Hostname(), c.Domain) {
			return fmt.Errorf("%w: %q is not within %q", ErrDomainMismatch, u.Hostname(), c.Domain)
		}
	}

	if _, err := client.ParseCacheMode(c.CacheMode); err != nil {
		return err
	}

	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	return nil
}

// ClientConfig returns the HTTP client settings.
func (c Config) ClientConfig() client.Config {
	mode, _ := client.ParseCacheMode(c.CacheMode)
	return client.Config{
		Timeout:   c.Timeout,
		CacheMode: mode,
		CacheDir:  c.CacheDir,
	}
}

// CookieURL is the URL session cookies are scoped to.
func (c Config) CookieURL() *url.URL {
	if c.BaseURL != "" {
		if u, err := url.Parse(c.BaseURL); err == nil {
			return u
		}
	}
	return &url.URL{Scheme: "https", Host: strings.TrimPrefix(c.Domain, "."), Path: "/"}
}

// domainMatch reports whether host is domain or one of its subdomains.
func domainMatch(host, domain string) bool {
	host = strings.ToLower(host)
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	return host == domain || strings.HasSuffix(host, "."+domain)
}
