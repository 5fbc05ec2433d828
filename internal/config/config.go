package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	DefaultProvider string
	DefaultModel    string
	APIKey          string
	OpenAIBaseURL   string
	OllamaHost      string
	AITimeout       time.Duration
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "5000")
	c.DefaultProvider = getenv("DEFAULT_PROVIDER", "openai")
	c.DefaultModel = getenv("DEFAULT_MODEL", "openai/gpt-4.1")
	c.APIKey = os.Getenv("GITHUB_TOKEN")
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	c.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	c.OllamaHost = getenv("OLLAMA_HOST", "http://localhost:11434")
	c.AITimeout = 15 * time.Second
	if s := os.Getenv("AI_TIMEOUT_SECONDS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			c.AITimeout = time.Duration(n) * time.Second
		}
	}
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
