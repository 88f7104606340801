package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	GitHub   GitHubConfig
	Store    StoreConfig
	Indexes  IndexConfig
	JWT      JWTConfig
	AWS      AWSConfig
	Snapshot SnapshotConfig
	Adoption AdoptionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings for the document store.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/copilot?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings (job queue, pub/sub, cache).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// GitHubConfig holds the API token and the organizations to collect.
// Slugs prefixed with "standalone:" address a standalone Copilot enterprise.
type GitHubConfig struct {
	Token             string
	OrganizationSlugs []string
	APIBaseURL        string
	GraphQLURL        string
	EnterpriseSlug    string
}

// StoreConfig holds document store settings.
type StoreConfig struct {
	PrimaryKey  string // document field used as the store id
	CacheTTLSec int    // leaderboard read cache TTL
}

// IndexConfig names the document store indexes, one per entity kind.
type IndexConfig struct {
	SeatInfo           string
	SeatAssignments    string
	UsageTotal         string
	UsageBreakdown     string
	UsageBreakdownChat string
	UserMetrics        string
	UserAdoption       string
}

// JWTConfig holds JWT signing settings and the operator login credentials.
type JWTConfig struct {
	Secret               string
	ExpireHours          int
	OperatorUser         string
	OperatorPasswordHash string // bcrypt hash; empty disables the login endpoint
}

// AWSConfig holds AWS credentials and the snapshot archive bucket.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SnapshotBucket  string
}

// SnapshotConfig holds JSON debug dump settings.
type SnapshotConfig struct {
	Enabled bool
	LogPath string
}

// AdoptionConfig holds leaderboard settings.
type AdoptionConfig struct {
	TopN int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", "postgres://localhost:5432/copilot?sslmode=disable"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "copilot"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		GitHub: GitHubConfig{
			Token:             getEnv("GITHUB_PAT", ""),
			OrganizationSlugs: splitTrim(getEnv("ORGANIZATION_SLUGS", ""), ","),
			APIBaseURL:        getEnv("GITHUB_API_URL", "https://api.github.com"),
			GraphQLURL:        getEnv("GITHUB_GRAPHQL_URL", "https://api.github.com/graphql"),
			EnterpriseSlug:    getEnv("ENTERPRISE_SLUG", ""),
		},
		Store: StoreConfig{
			PrimaryKey:  getEnv("PRIMARY_KEY", "unique_hash"),
			CacheTTLSec: getEnvInt("LEADERBOARD_CACHE_TTL_SEC", 60),
		},
		Indexes: IndexConfig{
			SeatInfo:           getEnv("INDEX_SEAT_INFO", "copilot_seat_info_settings"),
			SeatAssignments:    getEnv("INDEX_SEAT_ASSIGNMENTS", "copilot_seat_assignments"),
			UsageTotal:         getEnv("INDEX_NAME_TOTAL", "copilot_usage_total"),
			UsageBreakdown:     getEnv("INDEX_NAME_BREAKDOWN", "copilot_usage_breakdown"),
			UsageBreakdownChat: getEnv("INDEX_NAME_BREAKDOWN_CHAT", "copilot_usage_breakdown_chat"),
			UserMetrics:        getEnv("INDEX_USER_METRICS", "copilot_user_metrics"),
			UserAdoption:       getEnv("INDEX_USER_ADOPTION", "copilot_user_adoption"),
		},
		JWT: JWTConfig{
			Secret:               getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours:          getEnvInt("JWT_EXPIRE_HOURS", 24),
			OperatorUser:         getEnv("OPERATOR_USER", "operator"),
			OperatorPasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			SnapshotBucket:  getEnv("AWS_S3_SNAPSHOT_BUCKET", ""),
		},
		Snapshot: SnapshotConfig{
			Enabled: getEnvBool("SNAPSHOT_ENABLED", true),
			LogPath: getEnv("LOG_PATH", "logs"),
		},
		Adoption: AdoptionConfig{
			TopN: getEnvInt("ADOPTION_TOP_N", 10),
		},
	}
	return cfg, nil
}

// Validate checks settings the collection worker cannot run without.
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("GITHUB_PAT is required")
	}
	if len(c.GitHub.OrganizationSlugs) == 0 && c.GitHub.EnterpriseSlug == "" {
		return fmt.Errorf("ORGANIZATION_SLUGS or ENTERPRISE_SLUG is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
