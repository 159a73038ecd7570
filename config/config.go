package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Email        EmailConfig
	Sheets       SheetsConfig
	Registration RegistrationConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	BaseURL            string // public site URL used in emails, e.g. https://randopony.randonneurs.bc.ca
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings for the admin console.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// EmailConfig holds SMTP transport settings.
type EmailConfig struct {
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
}

// SheetsConfig holds Google Sheets API settings for rider-list sync.
type SheetsConfig struct {
	CredentialsFile string // service account JSON; empty disables spreadsheet sync
}

// RegistrationConfig holds the pre-registration business settings that the
// registration workflow and the event schedule rules consume.
type RegistrationConfig struct {
	CaptchaQuestion string
	CaptchaAnswer   int
	AdminEmail      string // club webmaster contact shown in organizer emails and pages
	TZOffsetHours   int    // server clock minus event-local clock
	GraceHours      int    // brevet start window after the official start time
	ArchiveDays     int    // event age beyond which the page points at results
	ResultsHost     string // host of the club's year-end results pages
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	jwtExpire, _ := strconv.Atoi(getEnv("JWT_EXPIRE_HOURS", "24"))

	captchaAnswer, err := strconv.Atoi(getEnv("REGISTRATION_CAPTCHA_ANSWER", "400"))
	if err != nil {
		return nil, fmt.Errorf("REGISTRATION_CAPTCHA_ANSWER must be an integer: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			BaseURL:            strings.TrimRight(getEnv("SITE_BASE_URL", "http://localhost:8080"), "/"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "randopony"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: jwtExpire,
		},
		Email: EmailConfig{
			SMTPHost: getEnv("SMTP_HOST", "localhost"),
			SMTPPort: getEnvInt("SMTP_PORT", 587),
			SMTPUser: getEnv("SMTP_USER", ""),
			SMTPPass: getEnv("SMTP_PASS", ""),
		},
		Sheets: SheetsConfig{
			CredentialsFile: getEnv("SHEETS_CREDENTIALS_FILE", ""),
		},
		Registration: RegistrationConfig{
			CaptchaQuestion: getEnv(
				"REGISTRATION_CAPTCHA_QUESTION",
				"Sum of the distances of the 4 brevets in a Super Randonneur series?"),
			CaptchaAnswer: captchaAnswer,
			AdminEmail:    getEnv("ADMIN_EMAIL", "webmaster@example.com"),
			TZOffsetHours: getEnvInt("EVENT_TZ_OFFSET_HOURS", 0),
			GraceHours:    getEnvInt("BREVET_GRACE_HOURS", 1),
			ArchiveDays:   getEnvInt("EVENT_ARCHIVE_DAYS", 7),
			ResultsHost:   getEnv("RESULTS_HOST", "randonneurs.bc.ca"),
		},
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
