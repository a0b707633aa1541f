/*
Package config loads runtime configuration for the funding service.

PURPOSE:
  One place that knows which environment variables exist. Settings come
  from the environment or a local .env file, read through Viper so
  either source works without code changes.

VARIABLES:
  PORT                  HTTP listen port          (default 8080)
  DB_PATH               SQLite database path      (default ./data/funding.db)
  JWT_SECRET            HS256 signing secret; when empty the API runs
                        without authentication (local development)
  CORS_ALLOWED_ORIGINS  Comma-separated origin list (default *)

USAGE:
  cfg, err := config.Load()
  if err != nil {
      log.Fatal(err)
  }
*/
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config stores all configuration for the service.
type Config struct {
	Port               string `mapstructure:"PORT"`
	DBPath             string `mapstructure:"DB_PATH"`
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// AllowedOrigins splits the configured origin list.
func (c Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads configuration from the environment or a local .env file.
func Load() (Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_PATH", "./data/funding.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	_ = v.BindEnv("PORT")
	_ = v.BindEnv("DB_PATH")
	_ = v.BindEnv("JWT_SECRET")
	_ = v.BindEnv("CORS_ALLOWED_ORIGINS")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
