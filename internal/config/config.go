package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            int           `mapstructure:"port" yaml:"port"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
		IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
		CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
		RateLimit       float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
		RateBurst       int           `mapstructure:"rate_burst" yaml:"rate_burst"`
	} `mapstructure:"server" yaml:"server"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// Store is the record database.
	Store struct {
		Driver   string `mapstructure:"driver" yaml:"driver"` // sqlite | mysql | postgres
		DSN      string `mapstructure:"dsn" yaml:"dsn"`
		Host     string `mapstructure:"host" yaml:"host"`
		Port     int    `mapstructure:"port" yaml:"port"`
		User     string `mapstructure:"user" yaml:"user"`
		Password string `mapstructure:"password" yaml:"-"`
		Name     string `mapstructure:"name" yaml:"name"`
	} `mapstructure:"store" yaml:"store"`

	Storage struct {
		Driver   string `mapstructure:"driver" yaml:"driver"` // local | minio
		LocalDir string `mapstructure:"local_dir" yaml:"local_dir"`
		Minio    struct {
			Endpoint   string `mapstructure:"endpoint" yaml:"endpoint"`
			AccessKey  string `mapstructure:"access_key" yaml:"-"`
			SecretKey  string `mapstructure:"secret_key" yaml:"-"`
			BucketName string `mapstructure:"bucket_name" yaml:"bucket_name"`
			Region     string `mapstructure:"region" yaml:"region"`
			UseSSL     bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
			PublicURL  string `mapstructure:"public_url" yaml:"public_url"`
		} `mapstructure:"minio" yaml:"minio"`
	} `mapstructure:"storage" yaml:"storage"`

	Lock struct {
		Driver string        `mapstructure:"driver" yaml:"driver"` // memory | redis
		TTL    time.Duration `mapstructure:"ttl" yaml:"ttl"`
		Redis  struct {
			Address  string `mapstructure:"address" yaml:"address"`
			Password string `mapstructure:"password" yaml:"-"`
			DB       int    `mapstructure:"db" yaml:"db"`
		} `mapstructure:"redis" yaml:"redis"`
	} `mapstructure:"lock" yaml:"lock"`

	Advisory struct {
		Provider      string        `mapstructure:"provider" yaml:"provider"` // openrouter | openai | anthropic
		APIKey        string        `mapstructure:"api_key" yaml:"-"`
		Model         string        `mapstructure:"model" yaml:"model"`
		BaseURL       string        `mapstructure:"base_url" yaml:"base_url"`
		MaxTokens     int           `mapstructure:"max_tokens" yaml:"max_tokens"`
		Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
		MaxAttempts   int           `mapstructure:"max_attempts" yaml:"max_attempts"`
		Backoff       time.Duration `mapstructure:"backoff" yaml:"backoff"`
		MaxConcurrent int64         `mapstructure:"max_concurrent" yaml:"max_concurrent"`
		QueueTimeout  time.Duration `mapstructure:"queue_timeout" yaml:"queue_timeout"`
	} `mapstructure:"advisory" yaml:"advisory"`

	Analysis struct {
		FailurePolicy   string `mapstructure:"failure_policy" yaml:"failure_policy"` // persist | fail
		DefaultLanguage string `mapstructure:"default_language" yaml:"default_language"`
		IndustriesFile  string `mapstructure:"industries_file" yaml:"industries_file"`
	} `mapstructure:"analysis" yaml:"analysis"`

	Upload struct {
		MaxBytes int64 `mapstructure:"max_bytes" yaml:"max_bytes"`
	} `mapstructure:"upload" yaml:"upload"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // json | console
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.host", "localhost")
	v.SetDefault("store.port", 0)
	v.SetDefault("store.user", "")
	v.SetDefault("store.password", "")
	v.SetDefault("store.name", "finadvisor")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", "uploads")
	v.SetDefault("storage.minio.endpoint", "localhost:9000")
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.bucket_name", "financial-documents")
	v.SetDefault("storage.minio.region", "us-east-1")
	v.SetDefault("storage.minio.use_ssl", false)
	v.SetDefault("storage.minio.public_url", "")

	v.SetDefault("lock.driver", "memory")
	v.SetDefault("lock.ttl", 2*time.Minute)
	v.SetDefault("lock.redis.address", "localhost:6379")
	v.SetDefault("lock.redis.password", "")
	v.SetDefault("lock.redis.db", 0)

	v.SetDefault("advisory.provider", "openrouter")
	v.SetDefault("advisory.api_key", "")
	v.SetDefault("advisory.model", "")
	v.SetDefault("advisory.base_url", "")
	v.SetDefault("advisory.max_tokens", 2048)
	v.SetDefault("advisory.timeout", 30*time.Second)
	v.SetDefault("advisory.max_attempts", 2)
	v.SetDefault("advisory.backoff", 500*time.Millisecond)
	v.SetDefault("advisory.max_concurrent", 8)
	v.SetDefault("advisory.queue_timeout", 10*time.Second)

	v.SetDefault("analysis.failure_policy", "persist")
	v.SetDefault("analysis.default_language", "English")
	v.SetDefault("analysis.industries_file", "")

	v.SetDefault("upload.max_bytes", 10<<20)
}

// Load resolves the configuration once: defaults, then the optional yaml
// file at path, then .env and FINADVISOR_* environment variables.
func Load(path string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FINADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// environment names kept from the first deployment
	_ = v.BindEnv("advisory.api_key", "FINADVISOR_ADVISORY_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("advisory.model", "FINADVISOR_ADVISORY_MODEL", "OPENROUTER_MODEL")
	_ = v.BindEnv("server.port", "FINADVISOR_SERVER_PORT", "PORT")
	_ = v.BindEnv("store.dsn", "FINADVISOR_STORE_DSN", "DATABASE_URL")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
				return nil, eris.Wrapf(err, "config: read %s", path)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: decode")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	oneOf := func(key, val string, allowed ...string) error {
		for _, a := range allowed {
			if val == a {
				return nil
			}
		}
		return eris.Errorf("config: %s must be one of %s, got %q", key, strings.Join(allowed, ", "), val)
	}
	checks := []error{
		oneOf("store.driver", c.Store.Driver, "sqlite", "mysql", "postgres"),
		oneOf("storage.driver", c.Storage.Driver, "local", "minio"),
		oneOf("lock.driver", c.Lock.Driver, "memory", "redis"),
		oneOf("advisory.provider", c.Advisory.Provider, "openrouter", "openai", "anthropic"),
		oneOf("analysis.failure_policy", c.Analysis.FailurePolicy, "persist", "fail"),
		oneOf("log.format", c.Log.Format, "json", "console"),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return eris.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Upload.MaxBytes <= 0 {
		return eris.New("config: upload.max_bytes must be positive")
	}
	if c.Advisory.Timeout <= 0 || c.Advisory.MaxAttempts <= 0 || c.Advisory.QueueTimeout <= 0 {
		return eris.New("config: advisory.timeout, advisory.max_attempts and advisory.queue_timeout must be positive")
	}
	// analyze answers only after the advisory call returns
	if need := c.AdvisoryBudget() + writeMargin; c.Server.WriteTimeout < need {
		return eris.Errorf("config: server.write_timeout %s is shorter than the advisory budget, need at least %s", c.Server.WriteTimeout, need)
	}
	return nil
}

// writeMargin covers engines, persistence and encoding around the advisory call.
const writeMargin = 5 * time.Second

// AdvisoryBudget is the longest a guarded advisory call may take.
func (c *Config) AdvisoryBudget() time.Duration {
	a := c.Advisory
	return a.QueueTimeout + time.Duration(a.MaxAttempts)*a.Timeout + time.Duration(a.MaxAttempts-1)*a.Backoff
}

// Helper untuk build DSN sesuai driver, kalau store.dsn kosong
func (c *Config) StoreDSN() string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}
	switch c.Store.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			c.Store.User,
			c.Store.Password,
			c.Store.Host,
			portOr(c.Store.Port, 3306),
			c.Store.Name,
		)
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Store.Host,
			portOr(c.Store.Port, 5432),
			c.Store.User,
			c.Store.Password,
			c.Store.Name,
		)
	default:
		return "finadvisor.db"
	}
}

func portOr(p, def int) int {
	if p == 0 {
		return def
	}
	return p
}

// YAML renders the effective configuration without secrets.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", eris.Wrap(err, "config: encode yaml")
	}
	return string(out), nil
}

// InitLogger builds the process logger and installs it as zap's global.
func InitLogger(lc LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, eris.Wrapf(err, "config: log level %q", lc.Level)
	}

	var zc zap.Config
	if lc.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zc.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
