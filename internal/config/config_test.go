package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL": "postgres://localhost/bnpl",
		"REDIS_URL":    "redis://localhost:6379",
		"JWT_SECRET":   "test-secret",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "PKR", cfg.CurrencyCode)
	require.Equal(t, 12, cfg.TrendingLimit)
	require.InDelta(t, 3.5, cfg.TrendingMinRating, 1e-9)
	require.Equal(t, int32(60), cfg.InstallmentMaxMonths)
	require.Equal(t, 5*time.Minute, cfg.TrendingCacheTTL)
	require.Equal(t, time.Hour, cfg.OverdueScanInterval)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = "9090"
	env["TRENDING_LIMIT"] = "20"
	env["TRENDING_MIN_RATING"] = "4.0"
	env["OVERDUE_PENALTY_MINOR_UNITS"] = "100000"
	env["NOTIFY_ADMIN_EMAILS"] = "a@x.example, b@x.example"

	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 20, cfg.TrendingLimit)
	require.InDelta(t, 4.0, cfg.TrendingMinRating, 1e-9)
	require.Equal(t, int64(100000), cfg.OverduePenalty)
	require.Equal(t, []string{"a@x.example", "b@x.example"}, cfg.NotifyAdminEmails)
}

func TestLoadRequiredFields(t *testing.T) {
	env := baseEnv()
	env["DATABASE_URL"] = ""
	_, err := LoadForTests(env)
	require.Error(t, err)

	env = baseEnv()
	env["JWT_SECRET"] = ""
	_, err = LoadForTests(env)
	require.Error(t, err)
}
