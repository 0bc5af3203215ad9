package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/njimyasmine/user-management-api/auth/hasher"
	"github.com/njimyasmine/user-management-api/auth/service"
	"github.com/njimyasmine/user-management-api/auth/token"
)

const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrMissingSecret = errors.New("JWT_SECRET is not set")
	ErrUnknownDriver = errors.New("unknown storage driver")
)

type Server struct {
	Host           string `toml:"host" env:"HOST"`
	Port           int    `toml:"port" env:"PORT"`
	Debug          bool   `toml:"debug_mode" env:"DEBUG"`
	CertFile       string `toml:"cert_file" env:"TLS_CERT_FILE"`
	KeyFile        string `toml:"key_file" env:"TLS_KEY_FILE"`
	CorsOrigins    string `toml:"cors_origins" env:"CORS_ORIGINS"`
	LoginRateLimit int    `toml:"login_rate_limit" env:"LOGIN_RATE_LIMIT"`
}

func (s Server) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

func (s Server) TLS() bool {
	return s.CertFile != "" && s.KeyFile != ""
}

type Postgres struct {
	Host     string `toml:"host" env:"HOST"`
	Port     int    `toml:"port" env:"PORT"`
	DBName   string `toml:"dbname" env:"DB"`
	Username string `toml:"username" env:"USER"`
	Password string `toml:"password" env:"PASSWORD"`
}

func (p Postgres) HostPort() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

type Storage struct {
	Driver     string   `toml:"driver" env:"STORAGE_DRIVER"`
	File       string   `toml:"file" env:"USERS_FILE"`
	SqliteFile string   `toml:"sqlite_file" env:"SQLITE_FILE"`
	Postgres   Postgres `toml:"postgres" envPrefix:"POSTGRES_"`
}

type TgBot struct {
	Enabled     bool    `toml:"enabled" env:"TG_BOT_ENABLED"`
	Token       string  `toml:"token" env:"TG_BOT_TOKEN"`
	Subscribers []int64 `toml:"subscribers" env:"TG_BOT_SUBSCRIBERS" envSeparator:","`
	Debug       bool    `toml:"debug" env:"TG_BOT_DEBUG"`
}

type Config struct {
	Server  Server         `toml:"server"`
	Auth    service.Config `toml:"auth"`
	Storage Storage        `toml:"storage"`
	TgBot   TgBot          `toml:"tg_bot"`
}

func Default() Config {
	return Config{
		Server: Server{
			Port:           3000,
			LoginRateLimit: 10,
			CorsOrigins:    "*",
		},
		Auth: service.Config{
			TokenTTL: token.DefaultTTL,
			HashCost: hasher.DefaultCost,
		},
		Storage: Storage{
			Driver:     DriverFile,
			File:       "data/users.json",
			SqliteFile: "data/users.sqlite",
			Postgres: Postgres{
				Host:   "localhost",
				Port:   5432,
				DBName: "users",
			},
		},
	}
}

// New builds the configuration from the defaults, the TOML file at path (if
// path is not empty) and finally the environment.
func New(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Auth.Secret == "" {
		errs = append(errs, ErrMissingSecret)
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token ttl must be positive, got %s", c.Auth.TokenTTL))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Server.Port))
	}
	if c.Server.LoginRateLimit < 0 {
		errs = append(errs, errors.New("login rate limit must not be negative"))
	}
	switch c.Storage.Driver {
	case DriverFile, DriverMemory, DriverSqlite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("%w %q", ErrUnknownDriver, c.Storage.Driver))
	}
	if c.TgBot.Enabled && c.TgBot.Token == "" {
		errs = append(errs, errors.New("telegram bot enabled without token"))
	}
	return errors.Join(errs...)
}
