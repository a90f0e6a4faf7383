package infra

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	CacheDir         string
	DownloadDir      string
	YtdlpPath        string
	MergeFormat      string
	LiveWait         time.Duration
	KillGrace        time.Duration
	JobRetention     time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. DATABASE_URL is optional: without it the result
// index falls back to the file cache under CacheDir.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		CacheDir:         getEnv("CACHE_DIR", "/cache"),
		DownloadDir:      getEnv("DOWNLOAD_DIR", "/downloads"),
		YtdlpPath:        getEnv("YTDLP_PATH", "yt-dlp"),
		MergeFormat:      getEnv("MERGE_FORMAT", "mp4"),
		LiveWait:         time.Second * time.Duration(getEnvInt("LIVE_WAIT_SECONDS", 120)),
		KillGrace:        time.Second * time.Duration(getEnvInt("KILL_GRACE_SECONDS", 10)),
		JobRetention:     time.Second * time.Duration(getEnvInt("JOB_RETENTION_SECONDS", 5)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		AllowedOrigins:   splitList(getEnv("ALLOWED_ORIGINS", "")),
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
