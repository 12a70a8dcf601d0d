package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/lockllm/lockllm-go"
)

type Config struct {
	Client    ClientConfig         `yaml:"client"`
	Proxy     ProxyConfig          `yaml:"proxy"`
	Server    ServerConfig         `yaml:"server"`
	Redis     RedisConfig          `yaml:"redis"`
	RateLimit RateLimitConfig      `yaml:"rate_limit"`
	Auth      AuthConfig           `yaml:"auth"`
	Breaker   CircuitBreakerConfig `yaml:"circuit_breaker"`
	Telemetry TelemetryConfig      `yaml:"telemetry"`
}

// ClientConfig holds the LockLLM API credentials and transport settings.
type ClientConfig struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
}

// ClientOptions converts the config into lockllm client options.
func (c ClientConfig) ClientOptions() []lockllm.Option {
	opts := []lockllm.Option{lockllm.WithMaxRetries(c.MaxRetries)}
	if c.BaseURL != "" {
		opts = append(opts, lockllm.WithBaseURL(c.BaseURL))
	}
	if c.Timeout > 0 {
		opts = append(opts, lockllm.WithTimeout(c.Timeout))
	}
	if c.RetryBaseDelay > 0 {
		opts = append(opts, lockllm.WithRetryBaseDelay(c.RetryBaseDelay))
	}
	return opts
}

// ProxyConfig holds the x-lockllm-* settings the gateway attaches to every
// forwarded request. Empty values are not sent.
type ProxyConfig struct {
	ScanMode        string   `yaml:"scan_mode"`
	Sensitivity     string   `yaml:"sensitivity"`
	ScanAction      string   `yaml:"scan_action"`
	PolicyAction    string   `yaml:"policy_action"`
	AbuseAction     string   `yaml:"abuse_action"`
	PIIAction       string   `yaml:"pii_action"`
	RouteAction     string   `yaml:"route_action"`
	CacheResponse   *bool    `yaml:"cache_response"`
	CacheTTL        *int     `yaml:"cache_ttl"`
	Compression     string   `yaml:"compression"`
	CompressionRate *float64 `yaml:"compression_rate"`
}

// Options converts the config into proxy options. "off" or "null" disables
// the abuse and PII detectors explicitly.
func (p ProxyConfig) Options() *lockllm.ProxyOptions {
	return &lockllm.ProxyOptions{
		ScanMode:          lockllm.ScanMode(p.ScanMode),
		Sensitivity:       lockllm.Sensitivity(p.Sensitivity),
		ScanAction:        lockllm.Action(p.ScanAction),
		PolicyAction:      lockllm.Action(p.PolicyAction),
		AbuseAction:       lockllm.ParseDetectorAction(p.AbuseAction),
		PIIAction:         lockllm.ParseDetectorAction(p.PIIAction),
		RouteAction:       lockllm.RouteAction(p.RouteAction),
		CacheResponse:     p.CacheResponse,
		CacheTTL:          p.CacheTTL,
		CompressionAction: lockllm.Compression(p.Compression),
		CompressionRate:   p.CompressionRate,
	}
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

type RedisConfig struct {
	Addresses []string `yaml:"addresses"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	PoolSize  int      `yaml:"pool_size"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return len(r.Addresses) > 0 && r.Addresses[0] != ""
}

type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Window            time.Duration `yaml:"window"`
}

// AuthConfig lists SHA-256 hashes of the local gateway tokens. An empty list
// disables local authentication.
type AuthConfig struct {
	KeyHashes []string `yaml:"key_hashes"`
}

type CircuitBreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	RecoveryInterval time.Duration `yaml:"recovery_interval"`
}

type TelemetryConfig struct {
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	LogFile       string `yaml:"log_file"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`
	LogCompress   bool   `yaml:"log_compress"`
}

func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			BaseURL:        lockllm.DefaultBaseURL,
			Timeout:        lockllm.DefaultTimeout,
			MaxRetries:     lockllm.DefaultMaxRetries,
			RetryBaseDelay: time.Second,
		},
		Server: ServerConfig{
			Host:             "127.0.0.1",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     300 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
		},
		Redis: RedisConfig{
			DB:       0,
			PoolSize: 20,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 600,
			Window:            time.Minute,
		},
		Breaker: CircuitBreakerConfig{
			FailureThreshold: 5,
			RecoveryInterval: 15 * time.Second,
		},
		Telemetry: TelemetryConfig{
			LogLevel:      "info",
			LogFormat:     "json",
			LogMaxSizeMB:  100,
			LogMaxBackups: 5,
			LogMaxAgeDays: 28,
		},
	}
}

// Validate reports settings the gateway cannot start with. All problems are
// returned together.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Client.MaxRetries < 0 {
		errs = append(errs, errors.New("client.max_retries must not be negative"))
	}
	if c.Breaker.FailureThreshold < 1 {
		errs = append(errs, errors.New("circuit_breaker.failure_threshold must be at least 1"))
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute < 1 {
		errs = append(errs, errors.New("rate_limit.requests_per_minute must be at least 1 when enabled"))
	}
	switch c.Telemetry.LogFormat {
	case "", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("telemetry.log_format %q is not json or text", c.Telemetry.LogFormat))
	}
	return errors.Join(errs...)
}
