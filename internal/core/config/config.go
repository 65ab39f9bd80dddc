package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	CORSOrigins     []string `mapstructure:"cors_origins"`
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int `mapstructure:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAgeDays int `mapstructure:"max_age_days"`
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int `mapstructure:"access_token_ttl_min"`
}

// Admin holds the single operator credential for the admin API.
type Admin struct {
	Username     string
	PasswordHash string `mapstructure:"password_hash"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTLSec   int    `mapstructure:"ttl_sec"`
}

// Mock tunes the simulated backend.
type Mock struct {
	LatencyMs   int     `mapstructure:"latency_ms"`
	FailureRate float64 `mapstructure:"failure_rate"`
	Seed        int64   `mapstructure:"seed"` // 0 seeds from the clock
	IDStrategy  string  `mapstructure:"id_strategy"`
}

func (m Mock) Latency() time.Duration { return time.Duration(m.LatencyMs) * time.Millisecond }

type Config struct {
	App   App
	Log   Log
	JWT   JWT
	Admin Admin
	Redis Redis `mapstructure:"redis"`
	Mock  Mock
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "mock-users")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 10)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.admin.host", "0.0.0.0")
	v.SetDefault("app.http.cors_origins", []string{})
	v.SetDefault("app.admin.port", 8081)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.enable", false)
	v.SetDefault("log.file.filename", "logs/mock-users.log")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.max_age_days", 30)
	v.SetDefault("log.file.compress", false)

	// Every key needs a default so APP_* env vars apply without a file.
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "mock-users")
	v.SetDefault("jwt.access_token_ttl_min", 60)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password_hash", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl_sec", 30)

	v.SetDefault("mock.latency_ms", 800)
	v.SetDefault("mock.failure_rate", 0.1)
	v.SetDefault("mock.seed", 0)
	v.SetDefault("mock.id_strategy", "length")
}

// Read loads the YAML file at path (CONFIG_PATH or ./configs/config.local.yaml
// when empty) and overlays APP_* environment variables. A missing file is
// not an error; defaults apply.
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return c
}
