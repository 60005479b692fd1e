package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/llm"
)

// apiKeyEnv names the environment variable read when assistant.api_key is unset.
var apiKeyEnv = map[string]string{
	llm.ProviderOpenAI:    "OPENAI_API_KEY",
	llm.ProviderAnthropic: "ANTHROPIC_API_KEY",
	llm.ProviderGemini:    "GEMINI_API_KEY",
}

// LoadAssistantConfig loads the language model settings of the assistant.
// The API key comes from assistant.api_key or, failing that, the provider's
// usual environment variable. An empty key leaves the assistant disabled.
func LoadAssistantConfig(v *viper.Viper) (llm.Config, error) {
	provider := strings.ToLower(v.GetString("assistant.provider"))
	envName, ok := apiKeyEnv[provider]
	if !ok {
		return llm.Config{}, fmt.Errorf("%w: assistant.provider must be openai, anthropic or gemini, got %q",
			common.ErrInvalidConfig, provider)
	}

	cfg := llm.Config{
		Provider:    provider,
		APIKey:      v.GetString("assistant.api_key"),
		Model:       v.GetString("assistant.model"),
		BaseURL:     v.GetString("assistant.base_url"),
		Temperature: v.GetFloat64("assistant.temperature"),
		MaxTokens:   v.GetInt("assistant.max_tokens"),
		RateLimit:   v.GetInt("assistant.rate_limit"),
		Timeout:     v.GetDuration("assistant.timeout"),
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(envName)
	}
	if cfg.Model == "" {
		cfg.Model = llm.DefaultModel(provider)
	}
	if cfg.MaxTokens < 0 || cfg.RateLimit < 0 || cfg.Temperature < 0 {
		return llm.Config{}, fmt.Errorf("%w: assistant limits cannot be negative", common.ErrInvalidConfig)
	}
	return cfg, nil
}
