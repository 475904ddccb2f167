package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "user-images", cfg.Storage.Bucket)
	assert.Equal(t, 2, cfg.Uploads.MaxBatchImages)
	assert.Equal(t, 500, cfg.Uploads.MaxCaptionLength)
	assert.Equal(t, 8*time.Hour, cfg.Admin.SessionTTL)
	assert.Len(t, cfg.Kafka.Topics.All(), 5)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("S3_BUCKET", "gallery")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("ADMIN_SESSION_TTL", "30m")
	t.Setenv("UPLOAD_MAX_BYTES", "not-a-number")

	cfg := Load()

	assert.Equal(t, "gallery", cfg.Storage.Bucket)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Minute, cfg.Admin.SessionTTL)
	assert.Equal(t, int64(10<<20), cfg.Uploads.MaxUploadBytes)
}
