package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from environment variables or config files.
type Config struct {
	AppEnv          string        `mapstructure:"APP_ENV" validate:"required,oneof=development staging production test"`
	HTTPAddr        string        `mapstructure:"HTTP_ADDR" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"required"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`

	DatabaseURL  string        `mapstructure:"DATABASE_URL" validate:"required,url|uri"`
	StoreTimeout time.Duration `mapstructure:"STORE_TIMEOUT" validate:"required"`

	MaxUploadBytes int64    `mapstructure:"MAX_UPLOAD_BYTES" validate:"gte=1024"`
	CSVDelimiter   string   `mapstructure:"CSV_DELIMITER" validate:"required,len=1"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS" validate:"gt=0"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST" validate:"gte=1"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS" validate:"min=1"`

	OTelEnabled    bool    `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint   string  `mapstructure:"OTEL_ENDPOINT" validate:"required_if=OTelEnabled true"`
	OTelSampleRate float64 `mapstructure:"OTEL_SAMPLE_RATE" validate:"gte=0,lte=1"`

	GoMaxProcs int `mapstructure:"GOMAXPROCS" validate:"gte=0,lte=4096"`
}

var (
	cfg      *Config
	validate = validator.New(validator.WithRequiredStructEnabled())
)

// keys are bound explicitly so AutomaticEnv picks them up during Unmarshal.
var keys = []string{
	"APP_ENV",
	"HTTP_ADDR",
	"SHUTDOWN_TIMEOUT",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"DATABASE_URL",
	"STORE_TIMEOUT",
	"MAX_UPLOAD_BYTES",
	"CSV_DELIMITER",
	"RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST",
	"CORS_ORIGINS",
	"OTEL_ENABLED",
	"OTEL_ENDPOINT",
	"OTEL_SAMPLE_RATE",
	"GOMAXPROCS",
}

// Load initializes configuration using Viper. It loads from .env if present,
// applies defaults, binds env vars, and validates the result.
func Load() (*Config, error) {
	// Load .env if present (non-fatal)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_ADDR", "0.0.0.0:8000")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("CSV_DELIMITER", ",")
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("CORS_ORIGINS", []string{"*"})
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SAMPLE_RATE", 1.0)
	v.SetDefault("GOMAXPROCS", 0)

	// Optional config file
	_ = v.ReadInConfig()

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	// Parse duration types that may come as string
	for key, dst := range map[string]*time.Duration{
		"SHUTDOWN_TIMEOUT": &c.ShutdownTimeout,
		"STORE_TIMEOUT":    &c.StoreTimeout,
	} {
		if s := v.GetString(key); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if strings.ContainsAny(c.CSVDelimiter, "\"\r\n\ufffd") {
		return nil, fmt.Errorf("invalid CSV_DELIMITER %q", c.CSVDelimiter)
	}

	if c.GoMaxProcs > 0 {
		runtime.GOMAXPROCS(c.GoMaxProcs)
	}

	cfg = &c
	return cfg, nil
}

// Delimiter returns CSV_DELIMITER as a rune.
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.CSVDelimiter)
	return r
}

// MustLoad loads configuration or exits the process on failure.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return c
}

// Get returns the loaded configuration. Panics if not loaded.
func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call config.Load or config.MustLoad first")
	}
	return cfg
}
