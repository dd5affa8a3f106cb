// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
	CORS     CORSConfig
	Discord  DiscordConfig
	Admin    AdminConfig
	Progress ProgressConfig
	Session  SessionConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// DiscordConfig holds settings for the Discord API and the session token
// verification endpoints
type DiscordConfig struct {
	APIBaseURL        string
	CDNBaseURL        string
	BotToken          string
	GuildID           string
	VerifyURL         string
	VerifyFallbackURL string
}

// AdminConfig holds the static administrator allow-lists. DiscordIDs match
// the provider id; UserIDs match the internal id and act as an escape hatch
// for accounts whose Discord lookup fails.
type AdminConfig struct {
	DiscordIDs []string
	UserIDs    []int
}

// ProgressConfig holds progress tracking settings
type ProgressConfig struct {
	CompletionThreshold float64
}

// SessionConfig holds session cache settings
type SessionConfig struct {
	CacheTTL time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return nil, fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Server configuration
	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8080" // default port
	}
	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = serverPort

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsOrigins == "" {
		// Default to allow all origins if not specified (for development)
		cfg.CORS.AllowedOrigins = []string{"*"}
	} else {
		cfg.CORS.AllowedOrigins = splitTrimmed(corsOrigins)
		if len(cfg.CORS.AllowedOrigins) == 0 {
			cfg.CORS.AllowedOrigins = []string{"*"}
		}
	}

	// Discord configuration
	apiBaseURL := os.Getenv("DISCORD_API_BASE_URL")
	if apiBaseURL == "" {
		apiBaseURL = "https://discord.com/api/v10" // default
	}
	cfg.Discord.APIBaseURL = strings.TrimRight(apiBaseURL, "/")

	cdnBaseURL := os.Getenv("DISCORD_CDN_BASE_URL")
	if cdnBaseURL == "" {
		cdnBaseURL = "https://cdn.discordapp.com" // default
	}
	cfg.Discord.CDNBaseURL = strings.TrimRight(cdnBaseURL, "/")

	botToken := os.Getenv("DISCORD_BOT_TOKEN")
	if botToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	cfg.Discord.BotToken = botToken

	guildID := os.Getenv("DISCORD_GUILD_ID")
	if guildID == "" {
		return nil, fmt.Errorf("DISCORD_GUILD_ID is required")
	}
	cfg.Discord.GuildID = guildID

	verifyURL := os.Getenv("AUTH_VERIFY_URL")
	if verifyURL == "" {
		return nil, fmt.Errorf("AUTH_VERIFY_URL is required")
	}
	cfg.Discord.VerifyURL = verifyURL

	// The verification provider is mid-migration between two URL shapes, so
	// a secondary endpoint is consulted once when the primary responds 404
	fallbackURL := os.Getenv("AUTH_VERIFY_FALLBACK_URL")
	if fallbackURL == "" {
		fallbackURL = verifyURL
	}
	cfg.Discord.VerifyFallbackURL = fallbackURL

	// Administrator allow-lists (optional)
	cfg.Admin.DiscordIDs = splitTrimmed(os.Getenv("ADMIN_DISCORD_IDS"))

	for _, raw := range splitTrimmed(os.Getenv("ADMIN_USER_IDS")) {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_USER_IDS entry %q: %w", raw, err)
		}
		cfg.Admin.UserIDs = append(cfg.Admin.UserIDs, id)
	}

	// Auto-completion threshold (default: 90% of playback/scroll extent)
	thresholdStr := os.Getenv("COMPLETION_THRESHOLD")
	if thresholdStr == "" {
		thresholdStr = "0.9"
	}
	threshold, err := strconv.ParseFloat(thresholdStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid COMPLETION_THRESHOLD: %w", err)
	}
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("COMPLETION_THRESHOLD must be in (0,1]")
	}
	cfg.Progress.CompletionThreshold = threshold

	// Session cache TTL (default: 5 minutes)
	cacheTTLStr := os.Getenv("SESSION_CACHE_TTL")
	if cacheTTLStr == "" {
		cacheTTLStr = "5m"
	}
	cacheTTL, err := time.ParseDuration(cacheTTLStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_CACHE_TTL: %w", err)
	}
	cfg.Session.CacheTTL = cacheTTL

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// splitTrimmed parses a comma-separated list, dropping empty entries
func splitTrimmed(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
