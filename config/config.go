package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"dmars/ranking"
)

// Config holds all service configuration, merged from defaults, an optional
// YAML file, and environment variables (highest precedence).
type Config struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`

	DBDriver   string `yaml:"db_driver"` // "sqlite" or "postgres"
	SQLitePath string `yaml:"sqlite_path"`

	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`

	MaxRetries   int `yaml:"max_retries"` // DB ping attempts before giving up
	CacheTTLSecs int `yaml:"cache_ttl_secs"`

	LogLevel string `yaml:"log_level"`

	DigestEnabled  bool   `yaml:"digest_enabled"`
	DigestTime     string `yaml:"digest_time"` // HH:MM, local to DigestTimezone
	DigestTimezone string `yaml:"digest_timezone"`
	DigestTopN     int    `yaml:"digest_top_n"`

	SeedEnabled bool  `yaml:"seed_enabled"`
	SeedCount   int   `yaml:"seed_count"`
	SeedRand    int64 `yaml:"seed_rand"`

	// WeightsVersion and WeightValues are the raw file inputs; Load resolves
	// them into Weights through ranking.ParseWeights so a typo'd feature name
	// or a set that does not sum to 1 fails startup.
	WeightsVersion string             `yaml:"weights_version"`
	WeightValues   map[string]float64 `yaml:"weights"`

	Weights ranking.Weights `yaml:"-"`
}

// digestTimeRegex validates HH:MM format with proper ranges.
var digestTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Load reads the .env file, the optional YAML config, and environment
// overrides, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := defaults()

	if err := mergeFile(cfg, configPath()); err != nil {
		return nil, err
	}
	applyEnvironmentOverrides(cfg)

	if err := resolveWeights(cfg); err != nil {
		return nil, fmt.Errorf("config: weights: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// configPath returns the YAML config path from the environment or default.
func configPath() string {
	if path := os.Getenv("DMARS_CONFIG"); path != "" {
		return path
	}
	return "./config.yaml"
}

func defaults() *Config {
	return &Config{
		Host:        "0.0.0.0",
		Port:        8000,
		CORSOrigins: []string{"http://localhost:3000", "http://localhost:8501"},

		DBDriver:   "sqlite",
		SQLitePath: "./dmars.db",

		PostgresHost:     "localhost",
		PostgresPort:     "5432",
		PostgresUser:     "dmars",
		PostgresPassword: "dmars",
		PostgresDB:       "dmars_db",
		PostgresSSLMode:  "disable",

		MaxRetries:   5,
		CacheTTLSecs: 30,

		LogLevel: "info",

		DigestEnabled:  false,
		DigestTime:     "09:00",
		DigestTimezone: "UTC",
		DigestTopN:     10,

		SeedEnabled: false,
		SeedCount:   150,
		SeedRand:    42,
	}
}

// mergeFile unmarshals the YAML file over cfg. The file at the default path
// is optional; a path set through DMARS_CONFIG must exist.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && os.Getenv("DMARS_CONFIG") == "" {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnvironmentOverrides(cfg *Config) {
	cfg.Host = getEnv("DMARS_HOST", cfg.Host)
	cfg.Port = getEnvInt("DMARS_PORT", cfg.Port)
	if origins := os.Getenv("DMARS_CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitAndTrim(origins)
	}

	cfg.DBDriver = getEnv("DMARS_DB_DRIVER", cfg.DBDriver)
	cfg.SQLitePath = getEnv("DMARS_SQLITE_PATH", cfg.SQLitePath)

	cfg.PostgresHost = getEnv("POSTGRES_HOST", cfg.PostgresHost)
	cfg.PostgresPort = getEnv("POSTGRES_PORT", cfg.PostgresPort)
	cfg.PostgresUser = getEnv("POSTGRES_USER", cfg.PostgresUser)
	cfg.PostgresPassword = getEnv("POSTGRES_PASSWORD", cfg.PostgresPassword)
	cfg.PostgresDB = getEnv("POSTGRES_DB", cfg.PostgresDB)
	cfg.PostgresSSLMode = getEnv("POSTGRES_SSLMODE", cfg.PostgresSSLMode)

	cfg.MaxRetries = getEnvInt("MAX_RETRIES", cfg.MaxRetries)
	cfg.CacheTTLSecs = getEnvInt("DMARS_CACHE_TTL_SECS", cfg.CacheTTLSecs)
	cfg.LogLevel = getEnv("DMARS_LOG_LEVEL", cfg.LogLevel)

	cfg.DigestEnabled = getEnvBool("DMARS_DIGEST_ENABLED", cfg.DigestEnabled)
	cfg.DigestTime = getEnv("DMARS_DIGEST_TIME", cfg.DigestTime)
	cfg.DigestTimezone = getEnv("DMARS_DIGEST_TZ", cfg.DigestTimezone)
	cfg.DigestTopN = getEnvInt("DMARS_DIGEST_TOP_N", cfg.DigestTopN)

	cfg.SeedEnabled = getEnvBool("DMARS_SEED_ENABLED", cfg.SeedEnabled)
	cfg.SeedCount = getEnvInt("DMARS_SEED_COUNT", cfg.SeedCount)
	cfg.SeedRand = getEnvInt64("DMARS_SEED_RAND", cfg.SeedRand)

	cfg.WeightsVersion = getEnv("WEIGHTS_VERSION", cfg.WeightsVersion)
	for _, feature := range []string{
		ranking.FeatureKeywordRelevance,
		ranking.FeatureEngagement,
		ranking.FeaturePriceCompetitiveness,
		ranking.FeatureConversionSignal,
	} {
		key := "WEIGHT_" + strings.ToUpper(feature)
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				if cfg.WeightValues == nil {
					cfg.WeightValues = ranking.DefaultWeights().Map()
				}
				cfg.WeightValues[feature] = f
			}
		}
	}
}

// resolveWeights turns the raw weight inputs into a validated ranking.Weights.
// With no overrides anywhere the stock v1 set applies.
func resolveWeights(cfg *Config) error {
	if len(cfg.WeightValues) == 0 {
		cfg.Weights = ranking.DefaultWeights()
		if cfg.WeightsVersion != "" {
			cfg.Weights.Version = cfg.WeightsVersion
		}
		return nil
	}

	version := cfg.WeightsVersion
	if version == "" {
		version = "custom"
	}
	w, err := ranking.ParseWeights(version, cfg.WeightValues)
	if err != nil {
		return err
	}
	cfg.Weights = w
	return nil
}

func validate(cfg *Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", cfg.Port)
	}
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		return fmt.Errorf("db_driver must be sqlite or postgres, got %q", cfg.DBDriver)
	}
	if cfg.DBDriver == "sqlite" && cfg.SQLitePath == "" {
		return fmt.Errorf("sqlite_path is required for the sqlite driver")
	}
	if cfg.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", cfg.MaxRetries)
	}
	if cfg.CacheTTLSecs < 1 {
		return fmt.Errorf("cache_ttl_secs must be at least 1, got %d", cfg.CacheTTLSecs)
	}
	if !digestTimeRegex.MatchString(cfg.DigestTime) {
		return fmt.Errorf("digest_time must be in HH:MM format (00:00-23:59), got %q", cfg.DigestTime)
	}
	if _, err := time.LoadLocation(cfg.DigestTimezone); err != nil {
		return fmt.Errorf("invalid digest_timezone %q: %w", cfg.DigestTimezone, err)
	}
	if cfg.DigestTopN < 1 {
		return fmt.Errorf("digest_top_n must be at least 1, got %d", cfg.DigestTopN)
	}
	if cfg.SeedCount < 0 {
		return fmt.Errorf("seed_count must not be negative, got %d", cfg.SeedCount)
	}
	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// CacheTTL returns the response cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSecs) * time.Second
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.ParseInt(val, 10, 64)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
