package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Env     string
	APIAddr string

	// Discord
	DiscordBotToken string
	GuildID         string
	VoiceChannelID  string
	TextChannelID   string
	CommandPrefix   string

	// Recording
	AudioDir string

	// Voice cloning TTS service
	TTSHost    string
	TTSTimeout time.Duration

	// Transcription (optional)
	OpenAIAPIKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Env:             getEnv("ENV", "development"),
		APIAddr:         getEnv("API_ADDR", ":8080"),
		DiscordBotToken: getEnv("DISCORD_BOT_TOKEN", ""),
		GuildID:         getEnv("DISCORD_GUILD_ID", ""),
		VoiceChannelID:  getEnv("DISCORD_VOICE_CHANNEL_ID", ""),
		TextChannelID:   getEnv("DISCORD_TEXT_CHANNEL_ID", ""),
		CommandPrefix:   getEnv("COMMAND_PREFIX", "!"),
		AudioDir:        getEnv("DISCORD_AUDIO_DIR", "."),
		TTSHost:         getEnv("TTS_HOST", ""),
		TTSTimeout:      getEnvAsDuration("TTS_TIMEOUT", 2*time.Minute),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.DiscordBotToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if c.GuildID == "" {
		return fmt.Errorf("DISCORD_GUILD_ID is required")
	}
	if c.VoiceChannelID == "" {
		return fmt.Errorf("DISCORD_VOICE_CHANNEL_ID is required")
	}
	// Text channel, TTS host and OpenAI key are optional. Without a text
	// channel, commands are accepted from any channel; the TTS and
	// transcription commands report a missing host or key when invoked.
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
