package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type DatabaseConfig struct {
	Host        string
	User        string
	Password    string
	Name        string
	Port        string
	SSLMode     string
	LockTimeout time.Duration
}

// LeaveConfig holds the quota policy used when ledgers are created.
type LeaveConfig struct {
	DefaultQuota int
	Quotas       map[string]int
	TypesTTL     time.Duration
	RolloverCron string
}

type Config struct {
	Port               string
	Database           DatabaseConfig
	RedisAddr          string
	KafkaBroker        string
	JWTSecret          string
	CORSAllowedOrigins []string
	OutboxPollInterval time.Duration
	Leave              LeaveConfig
}

// Load reads the process environment. godotenv should already have run.
func Load() (Config, error) {
	cfg := Config{
		Port: "3000",
		Database: DatabaseConfig{
			SSLMode:     "disable",
			LockTimeout: 5 * time.Second,
		},
		OutboxPollInterval: 3 * time.Second,
		Leave: LeaveConfig{
			DefaultQuota: 15,
			Quotas: map[string]int{
				"Planned Leave":   18,
				"Emergency Leave": 5,
			},
			TypesTTL:     10 * time.Minute,
			RolloverCron: "0 0 1 1 *",
		},
	}

	var missing, invalid []string

	if v := env("PORT"); v != "" {
		cfg.Port = v
	}

	cfg.Database.Host = env("DB_HOST")
	cfg.Database.User = env("DB_USER")
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Database.Name = env("DB_NAME")
	cfg.Database.Port = env("DB_PORT")
	if v := env("DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	for key, val := range map[string]string{
		"DB_HOST": cfg.Database.Host,
		"DB_USER": cfg.Database.User,
		"DB_NAME": cfg.Database.Name,
		"DB_PORT": cfg.Database.Port,
	} {
		if val == "" {
			missing = append(missing, key)
		}
	}
	if !parseDuration("DB_LOCK_TIMEOUT", &cfg.Database.LockTimeout) {
		invalid = append(invalid, "DB_LOCK_TIMEOUT")
	}

	cfg.RedisAddr = env("REDIS_ADDR")
	cfg.KafkaBroker = env("KAFKA_BROKER")

	if cfg.JWTSecret = os.Getenv("JWT_SECRET"); cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if v := env("CORS_ALLOWED_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
			}
		}
	}

	if !parseDuration("OUTBOX_POLL_INTERVAL", &cfg.OutboxPollInterval) {
		invalid = append(invalid, "OUTBOX_POLL_INTERVAL")
	}
	if !parseDuration("LEAVE_TYPES_CACHE_TTL", &cfg.Leave.TypesTTL) {
		invalid = append(invalid, "LEAVE_TYPES_CACHE_TTL")
	}

	if v := env("LEAVE_DEFAULT_QUOTA"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			invalid = append(invalid, "LEAVE_DEFAULT_QUOTA")
		} else {
			cfg.Leave.DefaultQuota = n
		}
	}
	if v := env("LEAVE_QUOTAS"); v != "" {
		quotas, err := ParseQuotas(v)
		if err != nil {
			invalid = append(invalid, "LEAVE_QUOTAS")
		} else {
			cfg.Leave.Quotas = quotas
		}
	}
	if v := env("LEDGER_ROLLOVER_CRON"); v != "" {
		cfg.Leave.RolloverCron = v
	}

	if len(missing) > 0 || len(invalid) > 0 {
		return cfg, fmt.Errorf("config: missing=%v invalid=%v", missing, invalid)
	}
	return cfg, nil
}

// ParseQuotas parses "Planned Leave=18,Emergency Leave=5".
func ParseQuotas(v string) (map[string]int, error) {
	quotas := make(map[string]int)
	for _, pair := range strings.Split(v, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid quota entry %q", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid quota for %q", name)
		}
		quotas[strings.TrimSpace(name)] = n
	}
	return quotas, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseDuration(key string, dst *time.Duration) bool {
	v := env(key)
	if v == "" {
		return true
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return false
	}
	*dst = d
	return true
}
