package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "shopsync", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "shopsync", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Empty(t, cfg.Redis.Host)

		assert.Equal(t, 60*time.Second, cfg.Sync.RequestTimeout)
		assert.Equal(t, 3, cfg.Sync.MaxAttempts)
		assert.Equal(t, 2*time.Second, cfg.Sync.BackoffStep)
		assert.Equal(t, 500, cfg.Sync.PageCeiling)
		assert.Equal(t, 100, cfg.Sync.PerPage)
		assert.Equal(t, 100, cfg.Sync.OrderBatchSize)
		assert.Equal(t, 8, cfg.Sync.PullConcurrency)
		assert.Equal(t, 300, cfg.Sync.FullPullBatchSize)
		assert.Equal(t, 50, cfg.Sync.CancelCheckEvery)
		assert.Equal(t, "shopsync.sync-events", cfg.Kafka.Topic)
		assert.Nil(t, cfg.SiteCodes())
	})

	t.Run("loads values from environment variables with SHOPSYNC prefix", func(t *testing.T) {
		t.Setenv("SHOPSYNC_APP_PORT", "9000")
		t.Setenv("SHOPSYNC_DATABASE_HOST", "testdb.local")
		t.Setenv("SHOPSYNC_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("SHOPSYNC_SYNC_PULL_CONCURRENCY", "4")
		t.Setenv("SHOPSYNC_SYNC_REQUESTS_PER_SECOND", "2.5")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 4, cfg.Sync.PullConcurrency)
		assert.Equal(t, 2.5, cfg.Sync.RequestsPerSecond)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("SHOPSYNC_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("SHOPSYNC_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects page size above the storefront maximum", func(t *testing.T) {
		t.Setenv("SHOPSYNC_SYNC_PER_PAGE", "250")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sync.per_page")
	})
}

func TestLoad_Sites(t *testing.T) {
	t.Run("builds sites from env with the first code as reference", func(t *testing.T) {
		t.Setenv("SHOPSYNC_SYNC_SITE_CODES", "com,UK, de")
		t.Setenv("SHOPSYNC_SITES_COM_BASE_URL", "https://shop.example.com")
		t.Setenv("SHOPSYNC_SITES_COM_KEY", "ck_com")
		t.Setenv("SHOPSYNC_SITES_COM_SECRET", "cs_com")
		t.Setenv("SHOPSYNC_SITES_UK_KEY", "ck_uk")

		cfg, err := Load()
		require.NoError(t, err)

		require.Len(t, cfg.Sites, 3)
		assert.Equal(t, "com", cfg.Sync.ReferenceSite)
		assert.Equal(t, []string{"com", "uk", "de"}, cfg.SiteCodes())
		assert.Equal(t, SiteConfig{
			Code:           "com",
			BaseURL:        "https://shop.example.com",
			ConsumerKey:    "ck_com",
			ConsumerSecret: "cs_com",
		}, cfg.Sites[0])
		assert.Equal(t, "ck_uk", cfg.Sites[1].ConsumerKey)
		assert.Empty(t, cfg.Sites[1].ConsumerSecret)
	})

	t.Run("reference site can be moved", func(t *testing.T) {
		t.Setenv("SHOPSYNC_SYNC_SITE_CODES", "com,uk")
		t.Setenv("SHOPSYNC_SYNC_REFERENCE_SITE", "uk")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"uk", "com"}, cfg.SiteCodes())
	})

	t.Run("reference site must be configured", func(t *testing.T) {
		t.Setenv("SHOPSYNC_SYNC_SITE_CODES", "com,uk")
		t.Setenv("SHOPSYNC_SYNC_REFERENCE_SITE", "fr")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sync.reference_site")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("SHOPSYNC_APP_ENV", "production")
		t.Setenv("SHOPSYNC_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("SHOPSYNC_DATABASE_PASSWORD", "secure-password")
		t.Setenv("SHOPSYNC_SYNC_SITE_CODES", "com")
		t.Setenv("SHOPSYNC_SITES_COM_BASE_URL", "https://shop.example.com")
		t.Setenv("SHOPSYNC_SITES_COM_KEY", "ck")
		t.Setenv("SHOPSYNC_SITES_COM_SECRET", "cs")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("requires site credentials in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOPSYNC_SITES_COM_SECRET", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "site com")
	})

	t.Run("requires at least one site in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOPSYNC_SYNC_SITE_CODES", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one site")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOPSYNC_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("fails if swagger enabled without auth in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOPSYNC_SWAGGER_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swagger endpoint")
	})
}

func TestLoad_OptionalBackends(t *testing.T) {
	t.Run("kafka needs brokers", func(t *testing.T) {
		t.Setenv("SHOPSYNC_KAFKA_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kafka.brokers")
	})

	t.Run("storage needs a bucket", func(t *testing.T) {
		t.Setenv("SHOPSYNC_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")
	})

	t.Run("swagger allowlist accepts addresses and prefixes", func(t *testing.T) {
		t.Setenv("SHOPSYNC_SWAGGER_ALLOWED_IPS", "10.0.0.0/8 192.168.1.5")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.5"}, cfg.Swagger.AllowedIPs)
	})

	t.Run("swagger allowlist rejects garbage", func(t *testing.T) {
		t.Setenv("SHOPSYNC_SWAGGER_ALLOWED_IPS", "office-vpn")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swagger.allowed_ips")
	})

	t.Run("redis port defaults once a host is set", func(t *testing.T) {
		t.Setenv("SHOPSYNC_REDIS_HOST", "cache.local")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "cache.local:6379", cfg.Redis.Addr())
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
