package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// AlertThresholds are reported alongside the configuration only; nothing
// in the engine enforces them.
type AlertThresholds struct {
	ResponseTimeMS int `yaml:"response_time"`
	MemoryUsagePct int `yaml:"memory_usage"`
	DiskUsagePct   int `yaml:"disk_usage"`
}

// Notifications is an inert placeholder; no dispatcher reads it.
type Notifications struct {
	Enabled  bool     `yaml:"enabled"`
	Channels []string `yaml:"channels"`
}

type Config struct {
	Addr     string // API bind address, e.g. "127.0.0.1:8080" or ":8080" (Docker)
	LogDir   string
	LogLevel string

	Endpoints map[string]string // service name -> probe URL

	Timeout       time.Duration // per probe
	CacheTTL      time.Duration // freshness window; 0 disables caching
	RetryAttempts int           // not wired into probing

	AlertThresholds AlertThresholds
	Notifications   Notifications

	MaxConcurrentChecks int           // 0 = one goroutine per endpoint
	WarmInterval        time.Duration // 0 = cache warmer disabled
	DiskPath            string
	MemoryLimit         string // "128M", "1G", "-1"; empty = auto
	UserAgent           string

	CacheRedisURL string // empty = in-process cache

	AllowedOrigins []string
	RateLimitRPM   int
	RateLimitBurst int

	// SimulateServices serves /api/status, /api/unreliable and /api/slow so
	// the default "api" endpoint has something to check. Turn it off when
	// the endpoints point at real dependencies.
	SimulateServices bool
}

const DefaultUserAgent = "HealthCheckService/1.0"

func Default() Config {
	return Config{
		Addr:     "127.0.0.1:8080",
		LogDir:   "logs",
		LogLevel: "info",
		Endpoints: map[string]string{
			"database": "http://localhost:3306",
			"redis":    "http://localhost:6379",
			"api":      "http://127.0.0.1:8080/api/status",
		},
		Timeout:       5 * time.Second,
		CacheTTL:      30 * time.Second,
		RetryAttempts: 3,
		AlertThresholds: AlertThresholds{
			ResponseTimeMS: 1000,
			MemoryUsagePct: 80,
			DiskUsagePct:   90,
		},
		Notifications: Notifications{
			Enabled:  false,
			Channels: []string{"mail", "slack"},
		},
		DiskPath:         "/",
		UserAgent:        DefaultUserAgent,
		RateLimitBurst:   60,
		SimulateServices: true,
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by HEALTH_CONFIG_FILE, and then the environment, and validates the result.
func Load() (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("HEALTH_CONFIG_FILE")); path != "" {
		var err error
		cfg, err = LoadFile(path, cfg)
		if err != nil {
			return Config{}, err
		}
	}
	cfg = applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv returns defaults overridden by environment variables. It does not
// validate.
func FromEnv() Config {
	return applyEnv(Default())
}

type fileConfig struct {
	Endpoints       map[string]string `yaml:"endpoints"`
	Timeout         *int              `yaml:"timeout"`
	CacheTTL        *int              `yaml:"cache_ttl"`
	RetryAttempts   *int              `yaml:"retry_attempts"`
	AlertThresholds *AlertThresholds  `yaml:"alert_thresholds"`
	Notifications   *Notifications    `yaml:"notifications"`
	DiskPath        string            `yaml:"disk_path"`
	MemoryLimit     string            `yaml:"memory_limit"`
	Simulate        *bool             `yaml:"simulate_services"`
}

// LoadFile overlays the YAML file at path onto base.
func LoadFile(path string, base Config) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return base, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg := base
	if len(fc.Endpoints) > 0 {
		cfg.Endpoints = make(map[string]string, len(fc.Endpoints))
		for k, v := range fc.Endpoints {
			cfg.Endpoints[k] = v
		}
	}
	if fc.Timeout != nil {
		cfg.Timeout = time.Duration(*fc.Timeout) * time.Second
	}
	if fc.CacheTTL != nil {
		cfg.CacheTTL = time.Duration(*fc.CacheTTL) * time.Second
	}
	if fc.RetryAttempts != nil {
		cfg.RetryAttempts = *fc.RetryAttempts
	}
	if fc.AlertThresholds != nil {
		cfg.AlertThresholds = *fc.AlertThresholds
	}
	if fc.Notifications != nil {
		cfg.Notifications = *fc.Notifications
	}
	if fc.DiskPath != "" {
		cfg.DiskPath = fc.DiskPath
	}
	if fc.MemoryLimit != "" {
		cfg.MemoryLimit = fc.MemoryLimit
	}
	if fc.Simulate != nil {
		cfg.SimulateServices = *fc.Simulate
	}
	return cfg, nil
}

func applyEnv(cfg Config) Config {
	cfg.Addr = getenv("API_ADDR", cfg.Addr)
	cfg.LogDir = getenv("LOG_DIR", cfg.LogDir)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)

	endpoints := make(map[string]string, len(cfg.Endpoints))
	for k, v := range cfg.Endpoints {
		endpoints[k] = v
	}
	for name, key := range map[string]string{
		"database": "HEALTH_DATABASE_URL",
		"redis":    "HEALTH_REDIS_URL",
		"api":      "HEALTH_API_URL",
	} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			endpoints[name] = v
		}
	}
	if v := strings.TrimSpace(os.Getenv("HEALTH_ENDPOINTS")); v != "" {
		endpoints = parseEndpoints(v)
	}
	cfg.Endpoints = endpoints

	if n, ok := getenvInt("HEALTH_TIMEOUT"); ok && n > 0 {
		cfg.Timeout = time.Duration(n) * time.Second
	}
	if n, ok := getenvInt("HEALTH_CACHE_TTL"); ok && n >= 0 {
		cfg.CacheTTL = time.Duration(n) * time.Second
	}
	if n, ok := getenvInt("HEALTH_RETRY_ATTEMPTS"); ok && n >= 0 {
		cfg.RetryAttempts = n
	}
	if n, ok := getenvInt("HEALTH_ALERT_RESPONSE_TIME_MS"); ok {
		cfg.AlertThresholds.ResponseTimeMS = n
	}
	if n, ok := getenvInt("HEALTH_ALERT_MEMORY_PCT"); ok {
		cfg.AlertThresholds.MemoryUsagePct = n
	}
	if n, ok := getenvInt("HEALTH_ALERT_DISK_PCT"); ok {
		cfg.AlertThresholds.DiskUsagePct = n
	}
	if v := os.Getenv("HEALTH_NOTIFICATIONS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Notifications.Enabled = b
		}
	}
	if v := os.Getenv("HEALTH_NOTIFICATION_CHANNELS"); v != "" {
		cfg.Notifications.Channels = splitList(v)
	}

	if n, ok := getenvInt("MAX_CONCURRENT_CHECKS"); ok && n >= 0 {
		cfg.MaxConcurrentChecks = n
	}
	if n, ok := getenvInt("HEALTH_WARM_INTERVAL_MS"); ok && n >= 0 {
		cfg.WarmInterval = time.Duration(n) * time.Millisecond
	}
	cfg.DiskPath = getenv("HEALTH_DISK_PATH", cfg.DiskPath)
	cfg.MemoryLimit = getenv("HEALTH_MEMORY_LIMIT", cfg.MemoryLimit)
	cfg.UserAgent = getenv("HEALTH_USER_AGENT", cfg.UserAgent)
	cfg.CacheRedisURL = getenv("CACHE_REDIS_URL", cfg.CacheRedisURL)

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if n, ok := getenvInt("PUBLIC_RPM"); ok && n >= 0 {
		cfg.RateLimitRPM = n
	}
	if n, ok := getenvInt("PUBLIC_BURST"); ok && n > 0 {
		cfg.RateLimitBurst = n
	}
	if v := os.Getenv("HEALTH_SIMULATE_SERVICES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.SimulateServices = b
		}
	}
	return cfg
}

var (
	ErrNoEndpoints     = errors.New("config: no endpoints configured")
	ErrInvalidTimeout  = errors.New("config: timeout must be positive")
	ErrInvalidCacheTTL = errors.New("config: cache ttl must not be negative")
)

// Validate reports every problem at once.
func (c Config) Validate() error {
	var err error
	if len(c.Endpoints) == 0 {
		err = multierr.Append(err, ErrNoEndpoints)
	}
	for name, target := range c.Endpoints {
		if strings.TrimSpace(name) == "" {
			err = multierr.Append(err, errors.New("config: endpoint with empty name"))
		}
		if strings.TrimSpace(target) == "" {
			err = multierr.Append(err, fmt.Errorf("config: endpoint %q has empty url", name))
		}
	}
	if c.Timeout <= 0 {
		err = multierr.Append(err, ErrInvalidTimeout)
	}
	if c.CacheTTL < 0 {
		err = multierr.Append(err, ErrInvalidCacheTTL)
	}
	if c.RetryAttempts < 0 {
		err = multierr.Append(err, errors.New("config: retry attempts must not be negative"))
	}
	if c.MaxConcurrentChecks < 0 {
		err = multierr.Append(err, errors.New("config: max concurrent checks must not be negative"))
	}
	if c.DiskPath == "" {
		err = multierr.Append(err, errors.New("config: disk path is empty"))
	}
	if c.MemoryLimit != "" {
		if _, perr := ParseMemoryLimit(c.MemoryLimit); perr != nil {
			err = multierr.Append(err, perr)
		}
	}
	return err
}

// ParseMemoryLimit reads sizes like "512", "64K", "128M", "2G". "-1" means
// unlimited and returns -1.
func ParseMemoryLimit(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("config: empty memory limit")
	}
	if s == "-1" {
		return -1, nil
	}
	orig := s
	mult := int64(1)
	switch s[len(s)-1] {
	case 'g', 'G':
		mult = 1 << 30
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1 << 20
		s = s[:len(s)-1]
	case 'k', 'K':
		mult = 1 << 10
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("config: invalid memory limit %q", orig)
	}
	return n * mult, nil
}

// parseEndpoints reads "name=url,name=url".
func parseEndpoints(v string) map[string]string {
	out := make(map[string]string)
	for _, pair := range splitList(v) {
		name, target, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(target)
	}
	return out
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func getenvInt(k string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
