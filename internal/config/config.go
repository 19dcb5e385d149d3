package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	TransportVKTeams  = "vkteams"
	TransportTelegram = "telegram"
)

type Config struct {
	Transport string
	BotToken  string
	BotAPIURL string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SSLMode    string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	TempDir            string
	PrimaryStoragePath string
	MirrorStoragePath  string
	StorageSubPath     string

	MaxFileSize        int64
	MaxFilesPerSession int
	SummaryWindow      time.Duration
	SummaryMaxWait     time.Duration

	VirusTotalAPIKey string
	VirusTotalURL    string
	VirusTotalRate   float64

	SessionIdleTimeout   time.Duration
	HousekeepingInterval time.Duration

	AdminIDs       []string
	HistoryURL     string
	InviteLinkBase string
	HTTPPort       string
	LogLevel       string
}

// Load reads .env (when present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debugf(".env not loaded: %v", err)
	}

	return Config{
		Transport: strings.ToLower(getEnv("BOT_TRANSPORT", TransportVKTeams)),
		BotToken:  getEnv("BOT_TOKEN", os.Getenv("VK_BOT_TOKEN")),
		BotAPIURL: getEnv("BOT_API_URL", "https://myteam.mail.ru/bot/v1"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "document_bot"),
		SSLMode:    getEnv("SSL_MODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		TempDir:            getEnv("TEMP_DIR", "temp_uploads"),
		PrimaryStoragePath: getEnv("PRIMARY_STORAGE_PATH", "storage/primary"),
		MirrorStoragePath:  getEnv("MIRROR_STORAGE_PATH", "storage/mirror"),
		StorageSubPath:     getEnv("STORAGE_SUB_PATH", "DGPS Data"),

		MaxFileSize:        getEnvInt64("MAX_FILE_SIZE", 20*1024*1024),
		MaxFilesPerSession: getEnvInt("MAX_FILES_PER_SESSION", 10),
		SummaryWindow:      getEnvDuration("SUMMARY_WINDOW", 2*time.Second),
		SummaryMaxWait:     getEnvDuration("SUMMARY_MAX_WAIT", 30*time.Second),

		VirusTotalAPIKey: getEnv("VIRUSTOTAL_API_KEY", ""),
		VirusTotalURL:    getEnv("VIRUSTOTAL_URL", "https://www.virustotal.com/vtapi/v2/file/report"),
		VirusTotalRate:   getEnvFloat("VIRUSTOTAL_RATE", 4.0/60.0),

		SessionIdleTimeout:   getEnvDuration("SESSION_IDLE_TIMEOUT", 24*time.Hour),
		HousekeepingInterval: getEnvDuration("HOUSEKEEPING_INTERVAL", 10*time.Minute),

		AdminIDs:       getEnvList("ADMIN_IDS", nil),
		HistoryURL:     getEnv("HISTORY_URL", ""),
		InviteLinkBase: getEnv("INVITE_LINK_BASE", ""),
		HTTPPort:       getEnv("HTTP_PORT", "8000"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Warnf("invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Warnf("invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDuration accepts Go durations ("2s", "1h") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(raw); err == nil {
		return parsed
	}
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
