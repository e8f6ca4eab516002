package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8431", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 3*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "session", cfg.Session.CookieName)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Session.Secure)
	assert.True(t, cfg.GeneratedSecret)
	assert.NotEmpty(t, cfg.Session.Secret)
}

func TestFromViperProductionRequiresSecret(t *testing.T) {
	v := viper.New()
	v.Set("APP_ENV", "production")
	_, err := FromViper(v)
	assert.ErrorContains(t, err, "SESSION_SECRET")

	v.Set("SESSION_SECRET", "s3cr3t")
	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.True(t, cfg.Session.Secure)
	assert.Equal(t, []byte("s3cr3t"), cfg.Session.Secret)
	assert.False(t, cfg.GeneratedSecret)
}

func TestFromViperRejectsUnknownDriver(t *testing.T) {
	v := viper.New()
	v.Set("DATABASE_DRIVER", "oracle")
	_, err := FromViper(v)
	assert.Error(t, err)
}

func TestFromViperDevLogging(t *testing.T) {
	v := viper.New()
	v.Set("LOG_DEV", true)
	v.Set("DATABASE_DRIVER", "sqlite3")
	v.Set("SESSION_TTL", "2h")
	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
}

func TestFromViperBcryptCostRange(t *testing.T) {
	for _, cost := range []int{0, 3, 32} {
		v := viper.New()
		v.Set("BCRYPT_COST", cost)
		_, err := FromViper(v)
		assert.ErrorContains(t, err, "BCRYPT_COST", "cost %d", cost)
	}
	for _, cost := range []int{4, 31} {
		v := viper.New()
		v.Set("BCRYPT_COST", cost)
		cfg, err := FromViper(v)
		require.NoError(t, err)
		assert.Equal(t, cost, cfg.BcryptCost)
	}
}
