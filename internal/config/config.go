package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
	BackendSQLite = "sqlite"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	GRPC        GRPCServer

	Store     Store     `envPrefix:"STORE_"`
	Ledger    Ledger    `envPrefix:"LEDGER_"`
	Auth      Auth      `envPrefix:"AUTH_"`
	Gemini    Gemini    `envPrefix:"GEMINI_"`
	RecipeAPI RecipeAPI `envPrefix:"RECIPE_API_"`
	ImageAPI  ImageAPI  `envPrefix:"IMAGE_API_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

func (h HTTPServer) Addr() string {
	return h.Host + ":" + h.Port
}

type GRPCServer struct {
	Addr string `env:"GRPC_ADDR" envDefault:":50051"`
}

type Store struct {
	Backend       string `env:"BACKEND" envDefault:"memory"`
	AtomicUpdates bool   `env:"ATOMIC_UPDATES" envDefault:"false"`
	MySQLDSN      string `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/laventory?parseTime=true"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"100"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"laventory.db"`
}

type Ledger struct {
	// SilentErrors answers failed ledger calls with the current snapshot
	// instead of an error status.
	SilentErrors bool `env:"SILENT_ERRORS" envDefault:"false"`
}

type Auth struct {
	JWTSecret string        `env:"JWT_SECRET"`
	Issuer    string        `env:"ISSUER" envDefault:"laventory"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

type Gemini struct {
	APIKey string `env:"API_KEY"`
	Model  string `env:"MODEL" envDefault:"gemini-2.5-flash"`
}

func (g Gemini) Enabled() bool {
	return g.APIKey != ""
}

type RecipeAPI struct {
	BaseURL          string        `env:"BASE_URL"`
	APIKey           string        `env:"KEY"`
	Timeout          time.Duration `env:"TIMEOUT" envDefault:"10s"`
	NamePath         string        `env:"NAME_PATH" envDefault:"$.name"`
	IngredientsPath  string        `env:"INGREDIENTS_PATH" envDefault:"$.ingredients"`
	InstructionsPath string        `env:"INSTRUCTIONS_PATH" envDefault:"$.instructions"`
}

func (r RecipeAPI) Enabled() bool {
	return r.BaseURL != ""
}

type ImageAPI struct {
	BaseURL string        `env:"BASE_URL"`
	APIKey  string        `env:"KEY"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
	// KeyParam sends the key as a query parameter instead of the KeyHeader
	// header when set.
	KeyParam  string            `env:"KEY_PARAM"`
	KeyHeader string            `env:"KEY_HEADER" envDefault:"X-Api-Key"`
	Params    map[string]string `env:"PARAMS" envDefault:"orientation:horizontal,image_type:photo"`
	URLPath   string            `env:"URL_PATH" envDefault:"$.hits[0].preview_url"`
}

func (i ImageAPI) Enabled() bool {
	return i.BaseURL != ""
}

// Load reads the configuration from the environment, after loading a .env
// file when one exists.
func Load() (*Config, error) {
	// a missing .env is fine outside development
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendRedis, BackendMySQL, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("AUTH_TOKEN_TTL must be positive, got %v", c.Auth.TokenTTL)
	}
	return nil
}
