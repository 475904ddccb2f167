package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Admin    AdminConfig
	Likes    LikesConfig
	Uploads  UploadConfig
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
	PublicSiteURL  string
}

type DatabaseConfig struct {
	DSN           string
	MaxOpenConns  int
	MaxIdleConns  int
	MaxLifetime   time.Duration
	MigrationsDir string
	AutoMigrate   bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
	Topics  TopicConfig
}

type TopicConfig struct {
	ImageSubmitted string
	ImageModerated string
	ImageDeleted   string
	LikeToggled    string
	EventChanged   string
}

func (t TopicConfig) All() []string {
	return []string{t.ImageSubmitted, t.ImageModerated, t.ImageDeleted, t.LikeToggled, t.EventChanged}
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	Bucket        string
	PublicBaseURL string
	CreateBucket  bool
}

type AuthConfig struct {
	OIDCIssuer        string
	MagicLinkURL      string
	MagicLinkAPIKey   string
	MagicLinkRedirect string
}

type AdminConfig struct {
	Username      string
	PasswordHash  string
	Password      string
	SessionSecret string
	SessionTTL    time.Duration
	SessionIssuer string
}

type LikesConfig struct {
	ToggleGuardTTL time.Duration
}

type UploadConfig struct {
	MaxBatchImages   int
	MaxCaptionLength int
	MaxUploadBytes   int64
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", ":8085"),
			ReadTimeout:    getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			PublicSiteURL:  getEnv("PUBLIC_SITE_URL", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			DSN:           getEnv("POSTGRES_DSN", ""),
			MaxOpenConns:  getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:   time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			MigrationsDir: getEnv("MIGRATIONS_DIR", ""),
			AutoMigrate:   getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Topics: TopicConfig{
				ImageSubmitted: getEnv("KAFKA_TOPIC_IMAGE_SUBMITTED", "gallery.image.submitted"),
				ImageModerated: getEnv("KAFKA_TOPIC_IMAGE_MODERATED", "gallery.image.moderated"),
				ImageDeleted:   getEnv("KAFKA_TOPIC_IMAGE_DELETED", "gallery.image.deleted"),
				LikeToggled:    getEnv("KAFKA_TOPIC_LIKE_TOGGLED", "gallery.like.toggled"),
				EventChanged:   getEnv("KAFKA_TOPIC_EVENT_CHANGED", "gallery.event.changed"),
			},
		},
		Storage: StorageConfig{
			Endpoint:      getEnv("S3_ENDPOINT", "localhost:9000"),
			AccessKey:     getEnv("S3_ACCESS_KEY", ""),
			SecretKey:     getEnv("S3_SECRET_KEY", ""),
			UseSSL:        getEnvBool("S3_USE_SSL", false),
			Bucket:        getEnv("S3_BUCKET", "user-images"),
			PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", "http://localhost:9000"),
			CreateBucket:  getEnvBool("S3_CREATE_BUCKET", false),
		},
		Auth: AuthConfig{
			OIDCIssuer:        getEnv("OIDC_ISSUER", ""),
			MagicLinkURL:      getEnv("AUTH_URL", ""),
			MagicLinkAPIKey:   getEnv("AUTH_API_KEY", ""),
			MagicLinkRedirect: getEnv("AUTH_REDIRECT_URL", "http://localhost:3000/auth/callback"),
		},
		Admin: AdminConfig{
			Username:      getEnv("ADMIN_USERNAME", "admin"),
			PasswordHash:  getEnv("ADMIN_PASSWORD_HASH", ""),
			Password:      getEnv("ADMIN_PASSWORD", ""),
			SessionSecret: getEnv("ADMIN_SESSION_SECRET", ""),
			SessionTTL:    getEnvDuration("ADMIN_SESSION_TTL", 8*time.Hour),
			SessionIssuer: getEnv("ADMIN_SESSION_ISSUER", "ms-gallery-admin"),
		},
		Likes: LikesConfig{
			ToggleGuardTTL: getEnvDuration("LIKE_TOGGLE_GUARD_TTL", 5*time.Second),
		},
		Uploads: UploadConfig{
			MaxBatchImages:   getEnvInt("UPLOAD_MAX_BATCH_IMAGES", 2),
			MaxCaptionLength: getEnvInt("UPLOAD_MAX_CAPTION_LENGTH", 500),
			MaxUploadBytes:   int64(getEnvInt("UPLOAD_MAX_BYTES", 10<<20)),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
