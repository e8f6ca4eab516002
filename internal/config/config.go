package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/database"
	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/utilities"
)

type Config struct {
	Env         string
	HTTPAddr    string
	SnowflakeID int64
	BcryptCost  int

	Database database.Config
	Log      utilities.Config
	Session  SessionConfig
	Admin    AdminConfig

	// GeneratedSecret is true when no SESSION_SECRET was configured and a
	// random one was produced for this process.
	GeneratedSecret bool
}

type SessionConfig struct {
	Secret     []byte
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// AdminConfig seeds the first administrator when the users table is empty.
type AdminConfig struct {
	Username string
	Password string
}

func (c Config) Production() bool { return c.Env == "production" }

func defaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_ADDR", "0.0.0.0:8431")
	v.SetDefault("DATABASE_DRIVER", database.DriverPostgres)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_MAX_CONNS", 5)
	v.SetDefault("DATABASE_TIMEOUT", 5*time.Second)
	v.SetDefault("DATABASE_STATEMENT_TIMEOUT", 3*time.Second)
	v.SetDefault("DATABASE_TIMEZONE", "")
	v.SetDefault("DATABASE_CLIENT_ENCODING", "")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("LOG_DEV", false)
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_TTL", 7*24*time.Hour)
	v.SetDefault("SESSION_COOKIE", "session")
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("SNOWFLAKE_NODE", 1)
	v.SetDefault("BCRYPT_COST", 12)
}

// Load reads configuration from the process environment, a best-effort .env
// file and, when CONFIG_FILE names one, a config file. Environment wins.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	defaults(v)
	cfg := Config{
		Env:         v.GetString("APP_ENV"),
		HTTPAddr:    v.GetString("HTTP_ADDR"),
		SnowflakeID: v.GetInt64("SNOWFLAKE_NODE"),
		BcryptCost:  v.GetInt("BCRYPT_COST"),
		Database: database.Config{
			Driver:           v.GetString("DATABASE_DRIVER"),
			DSN:              v.GetString("DATABASE_URL"),
			MaxConns:         v.GetInt("DATABASE_MAX_CONNS"),
			Timeout:          v.GetDuration("DATABASE_TIMEOUT"),
			StatementTimeout: v.GetDuration("DATABASE_STATEMENT_TIMEOUT"),
			TimeZone:         v.GetString("DATABASE_TIMEZONE"),
			ClientEncoding:   v.GetString("DATABASE_CLIENT_ENCODING"),
		},
		Log: utilities.Config{
			Level: v.GetString("LOG_LEVEL"),
			Dev:   v.GetBool("LOG_DEV"),
			File:  v.GetString("LOG_FILE"),
		},
		Session: SessionConfig{
			TTL:        v.GetDuration("SESSION_TTL"),
			CookieName: v.GetString("SESSION_COOKIE"),
		},
		Admin: AdminConfig{
			Username: v.GetString("ADMIN_USERNAME"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
	}
	if cfg.Log.Level == "" {
		if cfg.Log.Dev {
			cfg.Log.Level = "debug"
		} else {
			cfg.Log.Level = "info"
		}
	}
	cfg.Session.Secure = cfg.Production()

	switch cfg.Database.Driver {
	case database.DriverPostgres, database.DriverMySQL, database.DriverSQLite:
	default:
		return Config{}, fmt.Errorf("DATABASE_DRIVER must be one of postgres, mysql, sqlite3; got %q", cfg.Database.Driver)
	}
	if cfg.Session.TTL <= 0 {
		return Config{}, errors.New("SESSION_TTL must be positive")
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return Config{}, fmt.Errorf("BCRYPT_COST must be between %d and %d; got %d", bcrypt.MinCost, bcrypt.MaxCost, cfg.BcryptCost)
	}

	if secret := v.GetString("SESSION_SECRET"); secret != "" {
		cfg.Session.Secret = []byte(secret)
	} else if cfg.Production() {
		return Config{}, errors.New("SESSION_SECRET required in production")
	} else {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, err
		}
		cfg.Session.Secret = secret
		cfg.GeneratedSecret = true
	}
	return cfg, nil
}

func randomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	return []byte(base64.RawURLEncoding.EncodeToString(b)), nil
}
