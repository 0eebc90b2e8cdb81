package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantintake/internal/intake/models"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("RECORD_STORE", "memory")
	t.Setenv("OBJECT_STORE", "memory")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Supabase.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Webhooks.Timeout)
	assert.Equal(t, "grant-applications", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Second, cfg.Kafka.DeliveryTimeout)
	assert.Equal(t, models.DefaultVariants(), cfg.Variants)
	assert.False(t, cfg.UsesSupabase())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("INTAKE_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_SERVICE_KEY", "secret")
	t.Setenv("WEBHOOK_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("RATE_LIMIT_RPS", "0.5")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.Webhooks.Timeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.InDelta(t, 0.5, cfg.Limits.RPS, 1e-9)
	assert.True(t, cfg.UsesSupabase())
}

func TestFromEnvErrors(t *testing.T) {
	t.Run("supabase credentials required", func(t *testing.T) {
		t.Setenv("SUPABASE_URL", "")
		t.Setenv("SUPABASE_SERVICE_KEY", "")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "SUPABASE_URL")
	})

	t.Run("postgres needs a database url", func(t *testing.T) {
		t.Setenv("RECORD_STORE", "postgres")
		t.Setenv("OBJECT_STORE", "memory")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("bad values are all reported", func(t *testing.T) {
		t.Setenv("RECORD_STORE", "mongo")
		t.Setenv("OBJECT_STORE", "memory")
		t.Setenv("WEBHOOK_TIMEOUT", "soon")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "WEBHOOK_TIMEOUT")
		assert.ErrorContains(t, err, "RECORD_STORE")
	})
}

func TestLoadVariants(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
variants:
  - name: standard
    max_attachment_bytes: 5242880
  - name: scholarship
    max_attachment_bytes: 10485760
    bucket: scholarship-letters
    table: scholarship_applications
`), 0o600))

	variants, err := LoadVariants(path)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, int64(5*models.MiB), variants["standard"].MaxAttachmentBytes)
	assert.Equal(t, "support-letters", variants["standard"].Bucket)
	assert.Equal(t, "scholarship_applications", variants["scholarship"].Table)
}

func TestParseVariantsRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"empty":     "variants: []",
		"no name":   "variants: [{max_attachment_bytes: 10}]",
		"zero size": "variants: [{name: a}]",
		"duplicate": "variants: [{name: a, max_attachment_bytes: 1}, {name: a, max_attachment_bytes: 2}]",
		"not yaml":  "variants: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseVariants([]byte(doc))
			assert.Error(t, err)
		})
	}
}
