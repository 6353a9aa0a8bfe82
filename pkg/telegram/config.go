package telegram

import (
	"errors"
	"time"
)

// Config holds Telegram Bot API credentials and transport settings
type Config struct {
	BotToken string
	ChatID   string
	BaseURL  string // https://api.telegram.org unless overridden in tests
	Timeout  time.Duration
}

const (
	defaultBaseURL = "https://api.telegram.org"
	defaultTimeout = 10 * time.Second
)

// Validate checks that required fields are set
func (c Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("bot token is required")
	}
	if c.ChatID == "" {
		return errors.New("chat id is required")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}
