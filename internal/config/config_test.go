package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef-secret"

// setEnvs sets each variable for the duration of the test.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, 8001, cfg.HTTPPort)
	assert.Equal(t, "catalog_db", cfg.PostgresDB)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Minute, cfg.CategoryCacheTTL())
	assert.Equal(t, 20.0, cfg.RateLimitRPS)
	assert.Equal(t, 40, cfg.RateLimitBurst)
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_ShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 16 bytes")
}

func TestLoad_Overrides(t *testing.T) {
	setEnvs(t, map[string]string{
		"JWT_SECRET":                 testSecret,
		"STORE_BACKEND":              "memory",
		"CATALOG_HTTP_PORT":          "9090",
		"KAFKA_ENABLED":              "false",
		"KAFKA_BROKERS":              "k1:9092,k2:9092",
		"REDIS_ENABLED":              "false",
		"CATEGORY_CACHE_TTL_SECONDS": "5",
		"CORS_ALLOWED_ORIGINS":       "https://shop.example.com/, https://admin.example.com",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, 5*time.Second, cfg.CategoryCacheTTL())
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORS().AllowedOrigins)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name string
		envs map[string]string
		want string
	}{
		{"backend", map[string]string{"STORE_BACKEND": "sqlite"}, "STORE_BACKEND"},
		{"port", map[string]string{"CATALOG_HTTP_PORT": "70000"}, "invalid HTTP port"},
		{"timeout", map[string]string{"HTTP_READ_TIMEOUT_SECONDS": "0"}, "HTTP timeouts"},
		{"cache ttl", map[string]string{"CATEGORY_CACHE_TTL_SECONDS": "-1"}, "CATEGORY_CACHE_TTL_SECONDS"},
		{"rate limit", map[string]string{"RATE_LIMIT_RPS": "-2"}, "RATE_LIMIT_RPS"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "1.5"}, "OTEL_SAMPLE_RATE"},
		{"port type", map[string]string{"CATALOG_HTTP_PORT": "http"}, "parse config"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", testSecret)
			setEnvs(t, tc.envs)

			cfg, err := Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestConfig_Postgres(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/catalog")

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.Postgres()
	assert.Equal(t, "postgres://u:p@db:5432/catalog", pg.DSN())
	assert.Equal(t, int32(25), pg.MaxConns)
	assert.Equal(t, time.Hour, pg.MaxConnLifetime)
}

func TestConfig_Redis(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cache:6380", cfg.Redis().Addr())
}
