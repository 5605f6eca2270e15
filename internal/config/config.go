package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int           `yaml:"port"`
		ReadTimeout    time.Duration `yaml:"read_timeout"`
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		IdleTimeout    time.Duration `yaml:"idle_timeout"`
		MaxUploadBytes int64         `yaml:"max_upload_bytes"`
		CORSOrigins    []string      `yaml:"cors_origins"`
		APIKeys        []string      `yaml:"api_keys"`
		RateLimit      struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json | console
	} `yaml:"log"`

	Inference struct {
		BaseURL           string        `yaml:"base_url"`
		APIKey            string        `yaml:"api_key"`
		Model             string        `yaml:"model"`
		MaxTokens         int           `yaml:"max_tokens"`
		Temperature       float32       `yaml:"temperature"`
		Timeout           time.Duration `yaml:"timeout"`
		MaxRetries        int           `yaml:"max_retries"`
		BaseBackoff       time.Duration `yaml:"base_backoff"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Burst             int           `yaml:"burst"`
	} `yaml:"inference"`

	Pipeline struct {
		ToolAttempts        int           `yaml:"tool_attempts"`
		ClassifierThreshold float64       `yaml:"classifier_threshold"`
		CancelOnDisconnect  bool          `yaml:"cancel_on_disconnect"`
		Timeout             time.Duration `yaml:"timeout"`
		StepDelay           time.Duration `yaml:"step_delay"`
	} `yaml:"pipeline"`

	Session struct {
		Backend string `yaml:"backend"` // memory | redis
		Redis   struct {
			Addr     string        `yaml:"addr"`
			Password string        `yaml:"password"`
			DB       int           `yaml:"db"`
			TTL      time.Duration `yaml:"ttl"`
		} `yaml:"redis"`
	} `yaml:"session"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres | "" (disabled)
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OCR struct {
		Enabled   bool          `yaml:"enabled"`
		Tesseract string        `yaml:"tesseract"`
		PDFToPPM  string        `yaml:"pdftoppm"`
		Language  string        `yaml:"language"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"ocr"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var c Config
	c.Server.Port = 8000
	c.Server.ReadTimeout = 30 * time.Second
	// streams stay open for the whole pipeline
	c.Server.WriteTimeout = 5 * time.Minute
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.MaxUploadBytes = 10 * 1024 * 1024
	c.Server.CORSOrigins = []string{"*"}
	c.Server.RateLimit.RPS = 2
	c.Server.RateLimit.Burst = 10

	c.Log.Level = "info"
	c.Log.Format = "json"

	c.Inference.BaseURL = "https://openrouter.ai/api/v1"
	c.Inference.Model = "openai/gpt-4o-mini"
	c.Inference.MaxTokens = 2048
	c.Inference.Temperature = 0.2
	c.Inference.Timeout = 60 * time.Second
	c.Inference.MaxRetries = 3
	c.Inference.BaseBackoff = 500 * time.Millisecond
	c.Inference.RequestsPerSecond = 5
	c.Inference.Burst = 5

	c.Pipeline.ToolAttempts = 2
	c.Pipeline.ClassifierThreshold = 0.7
	c.Pipeline.Timeout = 4 * time.Minute

	c.Session.Backend = "memory"

	c.OCR.Enabled = true
	c.OCR.Tesseract = "tesseract"
	c.OCR.PDFToPPM = "pdftoppm"
	c.OCR.Language = "eng"
	c.OCR.Timeout = 2 * time.Minute
	return &c
}

// Load baca file config.yaml di atas default. File yang tidak ada bukan error.
// Environment variables override the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&c.Inference.APIKey, "OPEN_ROUTER_KEY", "OPENAI_API_KEY")
	set(&c.Inference.BaseURL, "INFERENCE_BASE_URL")
	set(&c.Inference.Model, "INFERENCE_MODEL")
	set(&c.Session.Redis.Addr, "REDIS_ADDR")
	set(&c.Database.Password, "DATABASE_PASSWORD")
	set(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	if v := getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	// REDIS_ADDR di env berarti pakai redis
	if getenv("REDIS_ADDR") != "" {
		c.Session.Backend = "redis"
	}
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Session.Redis.Addr == "" {
			errs = append(errs, errors.New("session.redis.addr required for redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("session.backend %q unknown", c.Session.Backend))
	}
	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q unknown", c.Database.Driver))
	}
	if c.Pipeline.ClassifierThreshold < 0 || c.Pipeline.ClassifierThreshold > 1 {
		errs = append(errs, errors.New("pipeline.classifier_threshold must be within [0,1]"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q unknown", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection URL.
func (c *Config) PostgresDSN() string {
	sslmode := c.Database.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
	}
	return u.String()
}
