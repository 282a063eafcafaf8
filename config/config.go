package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Dotenv string `mapstructure:"dotenv"`
	Server struct {
		HTTPPort        string        `mapstructure:"HTTPPort"`
		ReadTimeout     time.Duration `mapstructure:"readTimeout"`
		WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
		IdleTimeout     time.Duration `mapstructure:"idleTimeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
		AllowedOrigins  []string      `mapstructure:"allowedOrigins"`
		AuthRateLimit   int           `mapstructure:"authRateLimit"`
		SwaggerEnabled  bool          `mapstructure:"swaggerEnabled"`
	} `mapstructure:"server"`
	Repositories struct {
		// Driver selects the store: "postgres" (default) or "memory".
		Driver   string `mapstructure:"driver"`
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
			MaxConns          int32  `mapstructure:"maxConns"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	JWT JWTConfig `mapstructure:"jwt"`
}

// JWTConfig holds the bearer token settings.
type JWTConfig struct {
	SecretKey string        `mapstructure:"secretKey"`
	Issuer    string        `mapstructure:"issuer"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"mode":                           "APP_ENV",
	"server.HTTPPort":                "PORT",
	"server.allowedOrigins":          "CORS_ALLOWED_ORIGINS",
	"server.authRateLimit":           "AUTH_RATE_LIMIT",
	"server.swaggerEnabled":          "SWAGGER_ENABLED",
	"repositories.driver":            "STORE_DRIVER",
	"repositories.postgres.host":     "DB_HOST",
	"repositories.postgres.port":     "DB_PORT",
	"repositories.postgres.username": "DB_USER",
	"repositories.postgres.password": "DB_PASSWORD",
	"repositories.postgres.db":       "DB_NAME",
	"repositories.postgres.SSLMODE":  "DB_SSLMODE",
	"repositories.postgres.maxConns": "DB_MAX_CONNS",
	"jwt.secretKey":                  "JWT_SECRET",
	"jwt.issuer":                     "JWT_ISSUER",
	"jwt.ttl":                        "JWT_TTL",
}

func InitConfig() (Config, error) {
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	return load(v)
}

// load applies environment overrides on top of whatever v has read and
// unmarshals the result.
func load(v *viper.Viper) (Config, error) {
	var config Config
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Repositories.Driver == "" {
		config.Repositories.Driver = DriverPostgres
	}
	if config.Server.ShutdownTimeout <= 0 {
		config.Server.ShutdownTimeout = 10 * time.Second
	}
	if config.JWT.TTL <= 0 {
		config.JWT.TTL = 7 * 24 * time.Hour
	}
	return config, nil
}

// IsDevelopment reports whether the app runs with the local developer defaults.
func (c Config) IsDevelopment() bool {
	return c.Mode == "" || c.Mode == "development"
}
