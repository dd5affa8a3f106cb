package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "guildacademy")
	t.Setenv("DISCORD_BOT_TOKEN", "bot-token")
	t.Setenv("DISCORD_GUILD_ID", "guild-1")
	t.Setenv("AUTH_VERIFY_URL", "https://verify.example.com/session")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "https://discord.com/api/v10", cfg.Discord.APIBaseURL)
	assert.Equal(t, 0.9, cfg.Progress.CompletionThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Session.CacheTTL)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DISCORD_BOT_TOKEN", "")

	_, err := Load()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_BOT_TOKEN")
}

func TestLoad_FallbackDefaultsToPrimary(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, cfg.Discord.VerifyURL, cfg.Discord.VerifyFallbackURL)
}

func TestLoad_AdminAllowlists(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ADMIN_DISCORD_IDS", "100, 200 ,300")
	t.Setenv("ADMIN_USER_IDS", "1,7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"100", "200", "300"}, cfg.Admin.DiscordIDs)
	assert.Equal(t, []int{1, 7}, cfg.Admin.UserIDs)
}

func TestLoad_InvalidThreshold(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COMPLETION_THRESHOLD", "1.2")

	_, err := Load()

	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Database = DatabaseConfig{
		Host:     "localhost",
		Port:     3306,
		User:     "app",
		Password: "secret",
		DBName:   "guildacademy",
	}

	assert.Equal(t, "app:secret@tcp(localhost:3306)/guildacademy?parseTime=true&charset=utf8mb4", cfg.DSN())
}
