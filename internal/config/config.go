package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Name string `yaml:"name"`
		Port string `yaml:"port"`
	} `yaml:"app"`

	Postgres struct {
		Host            string        `yaml:"host"`
		Port            string        `yaml:"port"`
		User            string        `yaml:"user"`
		Password        string        `yaml:"password"`
		DBName          string        `yaml:"dbname"`
		SSLMode         string        `yaml:"sslmode"`
		MigrationsPath  string        `yaml:"migrations_path"`
		MaxConns        int32         `yaml:"max_conns"`
		MinConns        int32         `yaml:"min_conns"`
		MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	} `yaml:"postgres"`

	Auth struct {
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`
}

// Load reads the optional YAML config file, then applies environment
// overrides. A missing config file is not an error; missing required
// database or auth settings are.
func Load(path string) (*Config, error) {
	// .env is optional and only used in local development.
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.App.Name = "vinylvault"
	cfg.App.Port = "8080"
	cfg.Postgres.SSLMode = "disable"
	cfg.Postgres.MigrationsPath = "migrations"
	cfg.Postgres.MaxConns = 10
	cfg.Postgres.MinConns = 2
	cfg.Postgres.MaxConnLifetime = time.Hour
	cfg.Auth.TokenTTL = 24 * time.Hour

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: failed to open config file %s: %w", path, err)
			}
		} else {
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
				return nil, fmt.Errorf("config: invalid config file %s: %w", path, err)
			}
		}
	}

	overrideString(&cfg.App.Port, "APP_PORT")
	overrideString(&cfg.Postgres.Host, "DB_HOST")
	overrideString(&cfg.Postgres.Port, "DB_PORT")
	overrideString(&cfg.Postgres.User, "DB_USER")
	overrideString(&cfg.Postgres.Password, "DB_PASSWORD")
	overrideString(&cfg.Postgres.DBName, "DB_NAME")
	overrideString(&cfg.Postgres.SSLMode, "DB_SSLMODE")
	overrideString(&cfg.Postgres.MigrationsPath, "DB_MIGRATIONS_PATH")
	overrideString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	overrideDuration(&cfg.Auth.TokenTTL, "JWT_TOKEN_TTL")

	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("config: invalid DB_MAX_CONNS %q: %w", v, err)
		}
		cfg.Postgres.MaxConns = int32(n)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	required := map[string]string{
		"postgres host":     c.Postgres.Host,
		"postgres port":     c.Postgres.Port,
		"postgres user":     c.Postgres.User,
		"postgres password": c.Postgres.Password,
		"postgres dbname":   c.Postgres.DBName,
		"auth jwt secret":   c.Auth.JWTSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("config: %s is required", name)
		}
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
