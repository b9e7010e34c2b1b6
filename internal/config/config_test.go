// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Checkout.SessionCartTTL)
	assert.Equal(t, 1, cfg.Checkout.PickupLeadDays)
	assert.Equal(t, "ORD", cfg.Checkout.OrderNumberPrefix)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PICKUP_LEAD_DAYS", "3")
	t.Setenv("SESSION_CART_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 3, cfg.Checkout.PickupLeadDays)
	assert.Equal(t, time.Hour, cfg.Checkout.SessionCartTTL)
}

func TestValidateRejectsNegativePickupLead(t *testing.T) {
	t.Setenv("PICKUP_LEAD_DAYS", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PICKUP_LEAD_DAYS")
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     "db.internal",
			Port:     "5433",
			User:     "app",
			Password: "secret",
			Name:     "storefront",
			SSLMode:  "require",
		},
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=app password=secret dbname=storefront sslmode=require",
		cfg.GetDatabaseDSN())
}

func TestGetRedisAddr(t *testing.T) {
	cfg := &Config{Redis: RedisConfig{Host: "cache.internal", Port: "6380"}}
	assert.Equal(t, "cache.internal:6380", cfg.GetRedisAddr())
}
