package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"STOREFRONT_APP_NAME",
	"STOREFRONT_APP_ENV",
	"STOREFRONT_APP_PORT",
	"STOREFRONT_STORAGE_DRIVER",
	"STOREFRONT_S3_BUCKET",
	"STOREFRONT_CART_SHIPPING_FEE",
	"STOREFRONT_CART_ID_STRATEGY",
	"STOREFRONT_SESSION_SECRET",
	"STOREFRONT_SESSION_SECURE",
	"STOREFRONT_SESSION_SAME_SITE",
	"STOREFRONT_TELEMETRY_SAMPLING_RATIO",
	"STOREFRONT_REDIS_HOST",
	"STOREFRONT_REDIS_PORT",
	"STOREFRONT_HTTP_SWAGGER_ENABLED",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		original, had := os.LookupEnv(k)
		os.Unsetenv(k)
		if had {
			t.Cleanup(func() { os.Setenv(k, original) })
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "trendstep-storefront", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, DriverMemory, cfg.Storage.Driver)
		assert.Equal(t, "trendstepCart", cfg.Cart.StorageKey)
		assert.Equal(t, "5.99", cfg.Cart.ShippingFee)
		assert.Equal(t, "random", cfg.Cart.IDStrategy)
		assert.Equal(t, 3*time.Second, cfg.Cart.NoticeTTL)
		assert.Equal(t, 5*time.Second, cfg.Cart.SuccessTTL)
		assert.Equal(t, "trendstep_session", cfg.Session.CookieName)
		assert.NotEmpty(t, cfg.Session.Secret)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.False(t, cfg.HTTP.SwaggerEnabled)
	})

	t.Run("loads values from environment variables with STOREFRONT prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STOREFRONT_APP_PORT", "9000")
		t.Setenv("STOREFRONT_STORAGE_DRIVER", "redis")
		t.Setenv("STOREFRONT_REDIS_HOST", "cache.local")
		t.Setenv("STOREFRONT_REDIS_PORT", "6380")
		t.Setenv("STOREFRONT_CART_ID_STRATEGY", "slug")
		t.Setenv("STOREFRONT_CART_SHIPPING_FEE", "0")
		t.Setenv("STOREFRONT_HTTP_SWAGGER_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, DriverRedis, cfg.Storage.Driver)
		assert.Equal(t, "cache.local:6380", cfg.Redis.Addr())
		assert.Equal(t, "slug", cfg.Cart.IDStrategy)
		fee, err := cfg.Cart.Fee()
		require.NoError(t, err)
		assert.True(t, fee.IsZero())
		assert.True(t, cfg.HTTP.SwaggerEnabled)
	})

	t.Run("reads an explicit config file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "storefront.toml")
		content := `
[app]
port = "7070"

[storage]
driver = "sqlite"
sqlite_path = "/tmp/carts.db"

[cart]
shipping_fee = "7.50"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadFile(path)
		require.NoError(t, err)

		assert.Equal(t, "7070", cfg.App.Port)
		assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
		assert.Equal(t, "/tmp/carts.db", cfg.Storage.SQLitePath)
		assert.Equal(t, "7.50", cfg.Cart.ShippingFee)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		clearEnv(t)
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown storage driver",
			env:     map[string]string{"STOREFRONT_STORAGE_DRIVER": "mongo"},
			wantErr: "storage.driver",
		},
		{
			name:    "s3 without bucket",
			env:     map[string]string{"STOREFRONT_STORAGE_DRIVER": "s3"},
			wantErr: "s3.bucket",
		},
		{
			name:    "negative shipping fee",
			env:     map[string]string{"STOREFRONT_CART_SHIPPING_FEE": "-1"},
			wantErr: "cannot be negative",
		},
		{
			name:    "non numeric shipping fee",
			env:     map[string]string{"STOREFRONT_CART_SHIPPING_FEE": "free"},
			wantErr: "not a number",
		},
		{
			name:    "unknown id strategy",
			env:     map[string]string{"STOREFRONT_CART_ID_STRATEGY": "uuid"},
			wantErr: "cart.id_strategy",
		},
		{
			name:    "sampling ratio out of range",
			env:     map[string]string{"STOREFRONT_TELEMETRY_SAMPLING_RATIO": "1.5"},
			wantErr: "sampling_ratio",
		},
		{
			name:    "same site none requires secure cookie",
			env:     map[string]string{"STOREFRONT_SESSION_SAME_SITE": "none"},
			wantErr: "session.secure",
		},
		{
			name:    "production requires long session secret",
			env:     map[string]string{"STOREFRONT_APP_ENV": "production", "STOREFRONT_SESSION_SECRET": "short"},
			wantErr: "session.secret",
		},
		{
			name: "production requires secure cookie",
			env: map[string]string{
				"STOREFRONT_APP_ENV":        "production",
				"STOREFRONT_SESSION_SECRET": "0123456789abcdef0123456789abcdef",
			},
			wantErr: "session.secure",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("valid production config", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STOREFRONT_APP_ENV", "production")
		t.Setenv("STOREFRONT_SESSION_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("STOREFRONT_SESSION_SECURE", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Session.Secure)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "shop", Password: "p@ss word", DBName: "storefront", SSLMode: "disable"}
	assert.Equal(t, "postgres://shop:p%40ss%20word@db:5432/storefront?sslmode=disable", d.DSN())
}
