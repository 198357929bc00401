package llm

import (
	"fmt"
	"strings"

	"relation-chatter/internal/config"
)

// New builds the client selected by LLM_PROVIDER.
func New(cfg *config.Config) (Client, error) {
	switch config.LLMProvider(strings.ToLower(string(cfg.LLMProvider))) {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai: OPENAI_API_KEY is not set")
		}
		return NewOpenAI(OpenAIOptions{
			APIKey:   cfg.OpenAIAPIKey,
			BaseURL:  cfg.OpenAIBaseURL,
			Model:    cfg.OpenAIModel,
			Referrer: cfg.OpenRouterReferrer,
			Title:    cfg.OpenRouterTitle,
		}), nil
	case config.ProviderYandex:
		if cfg.YandexOAuthToken == "" || cfg.YandexFolderID == "" {
			return nil, fmt.Errorf("yandex: YANDEX_OAUTH_TOKEN and YANDEX_FOLDER_ID are required")
		}
		return NewYandex(cfg.YandexOAuthToken, cfg.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
}
