package config

import (
	"os"
	"strconv"
)

type Config struct {
	DB      DBConfig
	Storage StorageConfig
	JWT     JWTConfig
	Server  ServerConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// StorageBackend selects where physical upload bytes live. Metadata rows
// always live in the relational store regardless of backend.
type StorageBackend string

const (
	StorageBackendDisk  StorageBackend = "disk"
	StorageBackendMinIO StorageBackend = "minio"
)

type StorageConfig struct {
	Backend       StorageBackend
	UploadRoot    string
	AvatarDir     string
	AttachmentDir string
	MinIO         MinIOConfig
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port string
}

func Load() *Config {
	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "pulsefeed"),
			Password: getEnv("DB_PASSWORD", "pulsefeed_secret"),
			Name:     getEnv("DB_NAME", "pulsefeed"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Storage: StorageConfig{
			Backend:       StorageBackend(getEnv("STORAGE_BACKEND", string(StorageBackendDisk))),
			UploadRoot:    getEnv("UPLOAD_ROOT", "./uploads"),
			AvatarDir:     getEnv("AVATAR_DIR", "avatars"),
			AttachmentDir: getEnv("ATTACHMENT_DIR", "attachments"),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("MINIO_ACCESS_KEY", "pulsefeed"),
				SecretKey: getEnv("MINIO_SECRET_KEY", "pulsefeed_secret"),
				Bucket:    getEnv("MINIO_BUCKET", "pulsefeed"),
				UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
			},
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
