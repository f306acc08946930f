package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends for the persistence slot.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Persistence slot
	Backend        string // "memory" | "file" | "redis"
	DataFile       string // file backend path
	SlotKey        string // slot name (Redis key suffix)
	QuotaBytes     int64  // max serialized collection size, 0 = unlimited
	MaxUploadBytes int64  // request body cap for thumbnail and import uploads

	// Snapshots (disabled when BackupDir is empty)
	BackupDir      string
	BackupInterval time.Duration // ex: 1h
	BackupKeep     int           // newest snapshots kept by the garbage collector
	BackupMaxAge   time.Duration // older snapshots are pruned (newest always kept), <0 disables

	// Homepage seeding (disabled when SeedFile is empty)
	SeedFile    string // path to a Homepage bookmarks.yaml
	SeedIconDir string // directory holding the icons referenced by SeedFile

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	RateBurst  int // write requests allowed in a burst per client
	RatePerMin int // sustained write requests per minute per client
}

// Load reads the environment and panics on an invalid configuration.
func Load() *Config {
	cfg, err := Parse()
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}
	return cfg
}

// Parse reads the STARTPAGE_* environment.
func Parse() (*Config, error) {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("STARTPAGE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("STARTPAGE_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("STARTPAGE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("STARTPAGE_PRETTY_LOG", true),

		// Persistence
		Backend:        strings.ToLower(getenv("STARTPAGE_BACKEND", BackendFile)),
		DataFile:       getenv("STARTPAGE_DATA_FILE", "./startpage-links.json"),
		SlotKey:        getenv("STARTPAGE_SLOT_KEY", "startpage.links.v1"),
		QuotaBytes:     getenvInt64("STARTPAGE_QUOTA_BYTES", 5<<20),
		MaxUploadBytes: getenvInt64("STARTPAGE_MAX_UPLOAD_BYTES", 10<<20),

		// Snapshots
		BackupDir:      getenv("STARTPAGE_BACKUP_DIR", ""),
		BackupInterval: mustDuration("STARTPAGE_BACKUP_INTERVAL", time.Hour),
		BackupKeep:     getenvInt("STARTPAGE_BACKUP_KEEP", 10),
		BackupMaxAge:   mustDuration("STARTPAGE_BACKUP_MAX_AGE", 30*24*time.Hour),

		// Seeding
		SeedFile:    getenv("STARTPAGE_SEED_FILE", ""),
		SeedIconDir: getenv("STARTPAGE_SEED_ICON_DIR", ""),

		// Redis settings
		RedisAddr:           getenv("STARTPAGE_REDIS_ADDR", ""),
		RedisUser:           getenv("STARTPAGE_REDIS_USERNAME", ""),
		RedisPassword:       getenv("STARTPAGE_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("STARTPAGE_REDIS_DB", 0),
		RedisDT:             mustDuration("STARTPAGE_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("STARTPAGE_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("STARTPAGE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("STARTPAGE_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("STARTPAGE_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("STARTPAGE_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("STARTPAGE_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("STARTPAGE_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("STARTPAGE_REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("STARTPAGE_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("STARTPAGE_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("STARTPAGE_TRUST_PROXY", false),

		RateBurst:  getenvInt("STARTPAGE_RATE_BURST", 20),
		RatePerMin: getenvInt("STARTPAGE_RATE_PER_MIN", 60),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendFile:
		if c.DataFile == "" {
			return fmt.Errorf("STARTPAGE_DATA_FILE is required when STARTPAGE_BACKEND=file")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("STARTPAGE_REDIS_ADDR is required when STARTPAGE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown STARTPAGE_BACKEND %q (want memory, file or redis)", c.Backend)
	}

	if c.QuotaBytes < 0 {
		return fmt.Errorf("STARTPAGE_QUOTA_BYTES must be >= 0, got %d", c.QuotaBytes)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("STARTPAGE_MAX_UPLOAD_BYTES must be > 0, got %d", c.MaxUploadBytes)
	}
	if c.BackupDir != "" && c.BackupInterval <= 0 {
		return fmt.Errorf("STARTPAGE_BACKUP_INTERVAL must be > 0, got %v", c.BackupInterval)
	}
	if c.RateBurst <= 0 || c.RatePerMin <= 0 {
		return fmt.Errorf("STARTPAGE_RATE_BURST and STARTPAGE_RATE_PER_MIN must be > 0")
	}
	return nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
