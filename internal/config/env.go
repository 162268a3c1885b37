package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names for credentials and deployment settings.
const (
	EnvOpenAIKey         = "OPENAI_API_KEY"
	EnvGeminiKey         = "GEMINI_API_KEY"
	EnvNotionKey         = "NOTION_API_KEY"
	EnvNotionDatabaseID  = "NOTION_DATABASE_ID"
	EnvThreadsToken      = "THREADS_ACCESS_TOKEN"
	EnvGmailAddress      = "GMAIL_ADDRESS"
	EnvGmailAppPassword  = "GMAIL_APP_PASSWORD"
	EnvNotificationEmail = "NOTIFICATION_EMAIL"
	EnvAppBaseURL        = "APP_BASE_URL"
)

// Secrets are credentials read from the environment. They never live in config.json.
type Secrets struct {
	OpenAIAPIKey       string
	GeminiAPIKey       string
	NotionAPIKey       string
	NotionDatabaseID   string
	ThreadsAccessToken string
	GmailAddress       string
	GmailAppPassword   string
	NotificationEmail  string
	AppBaseURL         string
}

// LoadEnv loads KEY=value files into the process environment. Missing files
// are skipped and variables already set are left alone.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// SecretsFromEnv reads Secrets from the current environment.
func SecretsFromEnv() Secrets {
	get := func(key string) string { return strings.TrimSpace(os.Getenv(key)) }
	return Secrets{
		OpenAIAPIKey:       get(EnvOpenAIKey),
		GeminiAPIKey:       get(EnvGeminiKey),
		NotionAPIKey:       get(EnvNotionKey),
		NotionDatabaseID:   get(EnvNotionDatabaseID),
		ThreadsAccessToken: get(EnvThreadsToken),
		GmailAddress:       get(EnvGmailAddress),
		GmailAppPassword:   get(EnvGmailAppPassword),
		NotificationEmail:  get(EnvNotificationEmail),
		AppBaseURL:         get(EnvAppBaseURL),
	}
}

// LLMKey returns the API key for provider.
func (s Secrets) LLMKey(provider string) string {
	switch strings.ToLower(provider) {
	case "gemini", "google":
		return s.GeminiAPIKey
	default:
		return s.OpenAIAPIKey
	}
}

// EmailConfigured reports whether SMTP credentials and a recipient are present.
func (s Secrets) EmailConfigured() bool {
	return s.GmailAddress != "" && s.GmailAppPassword != "" && s.NotificationEmail != ""
}

// BaseURL returns the environment base URL when set, else cfg's.
func (s Secrets) BaseURL(cfg *Config) string {
	if s.AppBaseURL != "" {
		return strings.TrimRight(s.AppBaseURL, "/")
	}
	return strings.TrimRight(cfg.AppBaseURL, "/")
}
