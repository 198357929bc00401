package config

import (
	"log"

	"github.com/caarlos0/env/v6"

	"relation-chatter/internal/relation"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

// Relation holds the settings shared by the bot, relationctl and the MCP server.
type Relation struct {
	FilePath        string   `env:"RELATION_FILE_PATH" envDefault:"data/relation_data.json"`
	MinScore        int      `env:"RELATION_MIN_SCORE" envDefault:"0"`
	MaxScore        int      `env:"RELATION_MAX_SCORE" envDefault:"100"`
	InitialScore    int      `env:"RELATION_INITIAL_SCORE" envDefault:"50"`
	HistoryLimit    int      `env:"RELATION_HISTORY_LIMIT" envDefault:"50"`
	TagLabel        string   `env:"RELATION_TAG_LABEL" envDefault:"affinity"`
	NotifyOnChange  bool     `env:"RELATION_NOTIFY_ON_CHANGE" envDefault:"true"`
	ContextPriority int      `env:"RELATION_CONTEXT_PRIORITY" envDefault:"1000"`
	AdminUsers      []string `env:"RELATION_ADMINS" envSeparator:":"`
	AdminsFilePath  string   `env:"RELATION_ADMINS_FILE_PATH" envDefault:"data/admins.json"`
}

// StoreOptions converts the bounds into relation store options.
func (r Relation) StoreOptions() relation.Options {
	return relation.Options{
		MinScore:     r.MinScore,
		MaxScore:     r.MaxScore,
		InitialScore: r.InitialScore,
		HistoryLimit: r.HistoryLimit,
	}
}

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Prompts
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH" envDefault:"prompts/system_prompt.txt"`
	PersonaPriority  int    `env:"PERSONA_PRIORITY" envDefault:"500"`

	// Conversation window kept per user, in messages
	ConversationLimit int `env:"CONVERSATION_LIMIT" envDefault:"20"`

	// Storage
	LogFilePath string `env:"LOG_FILE_PATH" envDefault:"logs/log.jsonl"`

	// Daily digest for admins, cron syntax (UTC)
	DailyReportSpec string `env:"DAILY_REPORT_SPEC" envDefault:"0 21 * * *"`

	// Formatting
	MessageParseMode string `env:"MESSAGE_PARSE_MODE"`

	Relation Relation
}

// Parse reads the bot configuration from the environment.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseRelation reads only the relation settings, for tools that do not talk to Telegram.
func ParseRelation() (*Relation, error) {
	cfg := &Relation{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func New() *Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
