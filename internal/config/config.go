package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	AppEnv      string
	LogLevel    string
	CORSOrigins []string

	// Attendance (ponto) API
	ServerPort     int
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseURL    string
	JWTSecret      string
	JWTTTL         time.Duration
	Location       *time.Location // Fixed civil offset used for local days and reports

	// Monitoring API
	MonitorPort       int
	TSDriver          string // "influx" or "sql"
	InfluxURL         string
	InfluxToken       string
	InfluxOrg         string
	InfluxBucket      string
	TSDriverSQL       string // database/sql driver for the "sql" time-series store
	TSDatabaseURL     string
	TSMeasurement     string
	SampleRetention   time.Duration
	RetentionSchedule string

	// Notification sinks
	TelegramToken   string
	TelegramChatID  string
	TelegramAPIURL  string
	NotifyTimeout   time.Duration
	KafkaBrokers    []string
	KafkaAlertTopic string

	Admins []AdminSeed
}

// AdminSeed describes an administrator account created at startup if missing.
type AdminSeed struct {
	FullName string `yaml:"full_name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// fileConfig is the optional YAML document pointed to by CONFIG_FILE.
// Environment variables take precedence over anything set here.
type fileConfig struct {
	Env    map[string]string `yaml:"env"`
	Admins []AdminSeed       `yaml:"admins"`
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	var file fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}
	get := func(key, fallback string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		if v, ok := file.Env[key]; ok {
			return v
		}
		return fallback
	}

	port, err := strconv.Atoi(get("PORT", "5001"))
	if err != nil {
		return nil, fmt.Errorf("config: PORT: %w", err)
	}
	monitorPort, err := strconv.Atoi(get("MONITOR_PORT", "5000"))
	if err != nil {
		return nil, fmt.Errorf("config: MONITOR_PORT: %w", err)
	}
	jwtTTL, err := time.ParseDuration(get("JWT_TTL", "8h"))
	if err != nil {
		return nil, fmt.Errorf("config: JWT_TTL: %w", err)
	}
	notifyTimeout, err := time.ParseDuration(get("NOTIFY_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("config: NOTIFY_TIMEOUT: %w", err)
	}
	retention, err := time.ParseDuration(get("SAMPLE_RETENTION", "720h"))
	if err != nil {
		return nil, fmt.Errorf("config: SAMPLE_RETENTION: %w", err)
	}
	loc, err := ParseOffset(get("TZ_OFFSET", "-03:00"))
	if err != nil {
		return nil, fmt.Errorf("config: TZ_OFFSET: %w", err)
	}

	cfg := &Config{
		AppEnv:      get("APP_ENV", "development"),
		LogLevel:    get("LOG_LEVEL", "info"),
		CORSOrigins: splitList(get("CORS_ORIGINS", "http://localhost:3000")),

		ServerPort:     port,
		DatabaseDriver: get("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:    get("DATABASE_URL", "./ponto.db"),
		JWTSecret:      get("JWT_SECRET_KEY", ""),
		JWTTTL:         jwtTTL,
		Location:       loc,

		MonitorPort:       monitorPort,
		TSDriver:          get("TS_DRIVER", "influx"),
		InfluxURL:         get("INFLUXDB_URL", "http://localhost:8086"),
		InfluxToken:       get("INFLUXDB_TOKEN", ""),
		InfluxOrg:         get("INFLUXDB_ORG", "monitoring"),
		InfluxBucket:      get("INFLUXDB_BUCKET", "network"),
		TSDriverSQL:       get("TS_DATABASE_DRIVER", "postgres"),
		TSDatabaseURL:     get("TS_DATABASE_URL", ""),
		TSMeasurement:     get("TS_MEASUREMENT", "network_stats"),
		SampleRetention:   retention,
		RetentionSchedule: get("RETENTION_SCHEDULE", "0 3 * * *"),

		TelegramToken:   get("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:  get("TELEGRAM_CHAT_ID", ""),
		TelegramAPIURL:  get("TELEGRAM_API_URL", "https://api.telegram.org"),
		NotifyTimeout:   notifyTimeout,
		KafkaBrokers:    splitList(get("KAFKA_BROKERS", "")),
		KafkaAlertTopic: get("KAFKA_ALERT_TOPIC", "network-alerts"),

		Admins: file.Admins,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no safe default.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET_KEY must be set")
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	switch c.TSDriver {
	case "influx":
	case "sql":
		if c.TSDatabaseURL == "" {
			return fmt.Errorf("config: TS_DATABASE_URL must be set when TS_DRIVER=sql")
		}
	default:
		return fmt.Errorf("config: unsupported TS_DRIVER %q", c.TSDriver)
	}
	for i, a := range c.Admins {
		if a.Username == "" || a.Password == "" {
			return fmt.Errorf("config: admins[%d] needs username and password", i)
		}
	}
	return nil
}

// IsProduction reports whether cookies and logs should use production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ParseOffset turns "-03:00" / "+0530" / "Z" into a fixed zone.
func ParseOffset(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "Z" || s == "UTC" {
		return time.UTC, nil
	}
	t, err := time.Parse("-07:00", s)
	if err != nil {
		t, err = time.Parse("-0700", s)
		if err != nil {
			return nil, fmt.Errorf("invalid offset %q", s)
		}
	}
	_, offset := t.Zone()
	return time.FixedZone(s, offset), nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
