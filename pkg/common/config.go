package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration. Values come from defaults, then the
// optional YAML file named by IOT_CONFIG_FILE, then environment variables.
type Config struct {
	DB         DBConfig         `yaml:"db"`
	Server     ServerConfig     `yaml:"server"`
	Credential CredentialConfig `yaml:"credential"`
	Session    SessionConfig    `yaml:"session"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Storage    StorageConfig    `yaml:"storage"`
	Alert      AlertConfig      `yaml:"alert"`
}

type DBConfig struct {
	Type string `yaml:"type"` // file | memory | postgres
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
}

type ServerConfig struct {
	HTTPHostPort string `yaml:"http_host_port"`
	GRPCHostPort string `yaml:"grpc_host_port"`
}

type CredentialConfig struct {
	Pepper string        `yaml:"pepper"` // never logged
	TTL    time.Duration `yaml:"ttl"`
}

type SessionConfig struct {
	JWTSecret string        `yaml:"jwt_secret"` // never logged
	TTL       time.Duration `yaml:"ttl"`
}

// RateLimitConfig holds policies in "N/unit" form, unit one of s, m, h, d.
type RateLimitConfig struct {
	Login          string `yaml:"login"`
	Register       string `yaml:"register"`
	DeviceRegister string `yaml:"device_register"`
	Telemetry      string `yaml:"telemetry"`
	KeyRotation    string `yaml:"key_rotation"`
	RedisAddr      string `yaml:"redis_addr"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type StorageConfig struct {
	RecomputeInterval time.Duration `yaml:"recompute_interval"`
}

type AlertConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

func DefaultConfig() *Config {
	return &Config{
		DB: DBConfig{
			Type: "file",
			Path: "telemetry.db",
		},
		Server: ServerConfig{
			HTTPHostPort: ":1080",
		},
		Credential: CredentialConfig{
			TTL: 365 * 24 * time.Hour,
		},
		Session: SessionConfig{
			TTL: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Login:          "5/m",
			Register:       "3/h",
			DeviceRegister: "3/h",
			Telemetry:      "60/m",
			KeyRotation:    "5/h",
		},
		SMTP: SMTPConfig{
			Port: 587,
			From: "alerts@localhost",
		},
		Storage: StorageConfig{
			RecomputeInterval: time.Hour,
		},
		Alert: AlertConfig{
			Workers:   4,
			QueueSize: 256,
		},
	}
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := strings.TrimSpace(os.Getenv(EnvKeyIOTConfigFile)); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.DB.Type, EnvKeyIOTDBType)
	setString(&c.DB.Path, EnvKeyIOTDbPath)
	setString(&c.DB.URL, EnvKeyIOTDbURL)

	setString(&c.Server.HTTPHostPort, EnvKeyIOTHttpHostPort)
	setString(&c.Server.GRPCHostPort, EnvKeyIOTGrpcHostPort)

	setString(&c.Credential.Pepper, EnvKeyIOTCredentialPepper)
	setString(&c.Session.JWTSecret, EnvKeyIOTJwtSecret)

	setString(&c.RateLimit.Login, EnvKeyIOTRateLogin)
	setString(&c.RateLimit.Register, EnvKeyIOTRateRegister)
	setString(&c.RateLimit.DeviceRegister, EnvKeyIOTRateDeviceRegister)
	setString(&c.RateLimit.Telemetry, EnvKeyIOTRateTelemetry)
	setString(&c.RateLimit.KeyRotation, EnvKeyIOTRateKeyRotation)
	setString(&c.RateLimit.RedisAddr, EnvKeyIOTRedisAddr)

	setString(&c.SMTP.Host, EnvKeyIOTSmtpHost)
	setString(&c.SMTP.Username, EnvKeyIOTSmtpUsername)
	setString(&c.SMTP.Password, EnvKeyIOTSmtpPassword)
	setString(&c.SMTP.From, EnvKeyIOTSmtpFrom)

	if err := setInt(&c.SMTP.Port, EnvKeyIOTSmtpPort); err != nil {
		return err
	}
	if err := setInt(&c.Alert.Workers, EnvKeyIOTAlertWorkers); err != nil {
		return err
	}
	if err := setDuration(&c.Credential.TTL, EnvKeyIOTCredentialTTL); err != nil {
		return err
	}
	if err := setDuration(&c.Session.TTL, EnvKeyIOTJwtTTL); err != nil {
		return err
	}
	if err := setDuration(&c.Storage.RecomputeInterval, EnvKeyIOTRecomputeInterval); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.DB.Type {
	case "file", "memory":
	case "postgres":
		if c.DB.URL == "" {
			return fmt.Errorf("%s is required when %s=postgres", EnvKeyIOTDbURL, EnvKeyIOTDBType)
		}
	default:
		return fmt.Errorf("unknown %s: %q", EnvKeyIOTDBType, c.DB.Type)
	}

	if c.Credential.TTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvKeyIOTCredentialTTL)
	}

	if IsProduction() {
		if c.Credential.Pepper == "" {
			return fmt.Errorf("%s must be set in production", EnvKeyIOTCredentialPepper)
		}
		if c.Session.JWTSecret == "" {
			return fmt.Errorf("%s must be set in production", EnvKeyIOTJwtSecret)
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if value, found := os.LookupEnv(key); found && strings.TrimSpace(value) != "" {
		*dst = strings.TrimSpace(value)
	}
}

func setInt(dst *int, key string) error {
	value, found := os.LookupEnv(key)
	if !found || strings.TrimSpace(value) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid %s, should be an int value: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	value, found := os.LookupEnv(key)
	if !found || strings.TrimSpace(value) == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid %s, should be a duration like 24h: %w", key, err)
	}
	*dst = d
	return nil
}
