package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Optional infrastructure. With an empty DATABASE_URL the chat log is
	// disabled; with an empty REDIS_URL sessions live in process memory.
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	OpenAIAPIKey      string `env:"OPENAI_API_KEY,required"`
	OpenAIAssistantID string `env:"OPENAI_ASSISTANT_ID"`
	OpenAIModel       string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	PipedriveAPIToken string `env:"PIPEDRIVE_API_TOKEN"`
	PipedriveBaseURL  string `env:"PIPEDRIVE_BASE_URL" envDefault:"https://api.pipedrive.com/v1"`

	TokkoAPIKey  string `env:"TOKKO_API_KEY"`
	TokkoBaseURL string `env:"TOKKO_BASE_URL" envDefault:"https://www.tokkobroker.com/api/v1"`

	WhatsAppAccessToken   string `env:"WHATSAPP_ACCESS_TOKEN"`
	WhatsAppPhoneNumberID string `env:"WHATSAPP_PHONE_NUMBER_ID"`
	WebhookVerifyToken    string `env:"WEBHOOK_VERIFY_TOKEN"`

	GoogleServiceAccountFile string `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleCalendarID         string `env:"GOOGLE_CALENDAR_ID"`

	OAuthClientID     string `env:"OAUTH_CLIENT_ID"`
	OAuthClientSecret string `env:"OAUTH_CLIENT_SECRET"`
	OAuthTokenURL     string `env:"OAUTH_TOKEN_URL" envDefault:"https://accounts.zoho.com/oauth/v2/token"`
	OAuthRedirectURI  string `env:"OAUTH_REDIRECT_URI"`
	OAuthTokenFile    string `env:"OAUTH_TOKEN_FILE"`

	SourceTimezone string `env:"SOURCE_TIMEZONE" envDefault:"America/Mexico_City"`
	WorkStart      string `env:"WORK_START" envDefault:"09:00"`
	WorkEnd        string `env:"WORK_END" envDefault:"18:00"`

	AssistantPollSeconds    int `env:"ASSISTANT_POLL_SECONDS" envDefault:"1"`
	AssistantTimeoutSeconds int `env:"ASSISTANT_TIMEOUT_SECONDS" envDefault:"60"`

	SessionIdleTTLMinutes int `env:"SESSION_IDLE_TTL_MINUTES" envDefault:"720"`
	RateLimitPerMin       int `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) AssistantPollInterval() time.Duration {
	return time.Duration(c.AssistantPollSeconds) * time.Second
}

func (c *Config) AssistantTimeout() time.Duration {
	return time.Duration(c.AssistantTimeoutSeconds) * time.Second
}

func (c *Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionIdleTTLMinutes) * time.Minute
}

func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.SourceTimezone); err != nil {
		return fmt.Errorf("SOURCE_TIMEZONE %q is not a valid IANA zone: %w", c.SourceTimezone, err)
	}
	for name, value := range map[string]string{"WORK_START": c.WorkStart, "WORK_END": c.WorkEnd} {
		if _, err := time.Parse("15:04", value); err != nil {
			return fmt.Errorf("%s must be HH:MM in 24-hour form, got %q", name, value)
		}
	}
	if c.AssistantTimeoutSeconds <= 0 {
		return fmt.Errorf("ASSISTANT_TIMEOUT_SECONDS must be positive")
	}
	if c.AssistantPollSeconds <= 0 {
		return fmt.Errorf("ASSISTANT_POLL_SECONDS must be positive")
	}

	if c.PipedriveAPIToken == "" {
		log.Warn().Msg("PIPEDRIVE_API_TOKEN is empty: booking pipeline disabled")
	}
	if c.WhatsAppAccessToken == "" {
		log.Warn().Msg("WHATSAPP_ACCESS_TOKEN is empty: outbound WhatsApp replies disabled")
	}
	if c.WebhookVerifyToken == "" {
		log.Warn().Msg("WEBHOOK_VERIFY_TOKEN is empty: webhook verification will reject all requests")
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
