package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const (
	DefaultJWTSecret        = "change-me"
	DefaultJWTRefreshSecret = "change-me-refresh"
)

// Config holds application level configuration loaded from an optional YAML file and
// environment variables. Environment variables win over the file.
type Config struct {
	ServerPort  string
	DatabaseDSN string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	SwaggerHost string

	JWTSecret        string
	JWTRefreshSecret string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration

	PasswordHashCost int
	TokenHashCost    int

	// LoginRateLimit is the number of login requests allowed per client IP within
	// LoginRateWindow. Zero disables the throttle.
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// TrustedProxies are the networks whose X-Forwarded-For is believed when deriving
	// the client IP. Empty means the TCP peer address is the client.
	TrustedProxies []*net.IPNet

	LogLevel  string
	LogFormat string
}

// Load builds Config from CONFIG_FILE (if set) and the environment with sensible defaults.
func Load() (*Config, error) {
	file, err := readFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	l := &loader{file: file}

	cfg := &Config{
		ServerPort:  l.getEnv("SERVER_PORT", "8080"),
		DatabaseDSN: l.getEnv("DATABASE_DSN", "user:password@tcp(localhost:3306)/crm?charset=utf8mb4&parseTime=True&loc=UTC"),
		RedisAddr:   l.getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     l.getEnvInt("REDIS_DB", 0),
		RedisPass:   l.getEnv("REDIS_PASSWORD", ""),
		SwaggerHost: l.getEnv("SWAGGER_HOST", ""),

		JWTSecret:        l.getEnv("JWT_SECRET", DefaultJWTSecret),
		JWTRefreshSecret: l.getEnv("JWT_REFRESH_SECRET", DefaultJWTRefreshSecret),
		AccessTTL:        l.getEnvTTL("JWT_EXPIRES_IN", time.Hour),
		RefreshTTL:       l.getEnvTTL("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),

		PasswordHashCost: l.getEnvInt("PASSWORD_HASH_COST", bcrypt.DefaultCost),
		TokenHashCost:    l.getEnvInt("TOKEN_HASH_COST", bcrypt.DefaultCost),

		LoginRateLimit:  l.getEnvInt("LOGIN_RATE_LIMIT", 5),
		LoginRateWindow: l.getEnvTTL("LOGIN_RATE_WINDOW", time.Minute),
		TrustedProxies:  l.getEnvNets("TRUSTED_PROXIES"),

		LogLevel:  l.getEnv("LOG_LEVEL", "info"),
		LogFormat: l.getEnv("LOG_FORMAT", "json"),
	}
	if len(l.errs) > 0 {
		return nil, errors.Join(l.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface as confusing runtime failures.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.JWTRefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET must not be empty"))
	}
	if c.JWTSecret != "" && c.JWTSecret == c.JWTRefreshSecret {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	if c.AccessTTL <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("JWT_REFRESH_EXPIRES_IN must be positive"))
	}
	for name, cost := range map[string]int{
		"PASSWORD_HASH_COST": c.PasswordHashCost,
		"TOKEN_HASH_COST":    c.TokenHashCost,
	} {
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			errs = append(errs, fmt.Errorf("%s must be between %d and %d", name, bcrypt.MinCost, bcrypt.MaxCost))
		}
	}
	if c.LoginRateLimit < 0 {
		errs = append(errs, errors.New("LOGIN_RATE_LIMIT must not be negative"))
	}
	if c.LoginRateWindow <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_WINDOW must be positive"))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// UsesDefaultSecrets reports whether either signing secret was left at its built-in value.
func (c *Config) UsesDefaultSecrets() bool {
	return c.JWTSecret == DefaultJWTSecret || c.JWTRefreshSecret == DefaultJWTRefreshSecret
}

// ParseTTL accepts Go durations ("15m", "1h30m"), whole days ("7d") and bare seconds ("3600").
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// readFile loads a flat YAML map keyed like the environment variables. A missing path
// yields no values.
func readFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		values[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return values, nil
}

type loader struct {
	file map[string]string
	errs []error
}

func (l *loader) getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v, ok := l.file[key]; ok && v != "" {
		return v
	}
	return def
}

func (l *loader) getEnvInt(key string, def int) int {
	v := l.getEnv(key, "")
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return parsed
}

func (l *loader) getEnvTTL(key string, def time.Duration) time.Duration {
	v := l.getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := ParseTTL(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

// getEnvNets parses a comma-separated list of CIDRs. A bare address is a single host.
func (l *loader) getEnvNets(key string) []*net.IPNet {
	v := l.getEnv(key, "")
	if v == "" {
		return nil
	}
	var nets []*net.IPNet
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "/") {
			ip := net.ParseIP(part)
			if ip == nil {
				l.errs = append(l.errs, fmt.Errorf("%s: %q is not an IP or CIDR", key, part))
				continue
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(part)
		if err != nil {
			l.errs = append(l.errs, fmt.Errorf("%s: %q is not an IP or CIDR", key, part))
			continue
		}
		nets = append(nets, n)
	}
	return nets
}
