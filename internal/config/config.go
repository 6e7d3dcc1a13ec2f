package config

import (
	"log"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "Asia/Jerusalem"
	configPathEnv     = "NEWSRADAR_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	logLevelEnv       = "LOG_LEVEL"
	logFormatEnv      = "LOG_FORMAT"
	cronEnv           = "SCHEDULE_CRON"
	timezoneEnv       = "TZ_NAME"
	googleAPIKeyEnv   = "GOOGLE_API_KEY"
	geminiModelEnv    = "GEMINI_MODEL"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	analysisEnv       = "ANALYSIS_PROVIDER"
	translatorURLEnv  = "TRANSLATOR_URL"
	translatorKeyEnv  = "TRANSLATOR_API_KEY"
	ntfyServerEnv     = "NTFY_SERVER"
	ntfyTopicEnv      = "NTFY_TOPIC"
	ntfyClickEnv      = "NTFY_CLICK_URL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	windowSizeEnv     = "REPORT_WINDOW_SIZE"
)

// Analysis providers.
const (
	ProviderNone    = "none"
	ProviderGemini  = "gemini"
	ProviderChatGPT = "chatgpt"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Fetcher       FetcherConfig      `yaml:"fetcher"`
	Aggregator    AggregatorConfig   `yaml:"aggregator"`
	Report        ReportConfig       `yaml:"report"`
	Notifications NotificationConfig `yaml:"notifications"`
	Translator    TranslatorConfig   `yaml:"translator"`
	Analysis      AnalysisConfig     `yaml:"analysis"`
	Logging       LoggingConfig      `yaml:"logging"`
	Sources       []string           `yaml:"sources"`
	Keywords      []KeywordConfig    `yaml:"keywords"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN selects
// the in-memory store seeded from Sources and Keywords.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	EnsureSchema bool   `yaml:"ensureSchema"`
}

// SchedulerConfig defines when runs are triggered.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	RunOnStart     bool           `yaml:"runOnStart"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FetcherConfig bounds the per-source fetch work.
type FetcherConfig struct {
	MaxConcurrency int               `yaml:"maxConcurrency"`
	RequestTimeout time.Duration     `yaml:"requestTimeout"`
	BodyTimeout    time.Duration     `yaml:"bodyTimeout"`
	MaxEntries     int               `yaml:"maxEntries"`
	MaxLinks       int               `yaml:"maxLinks"`
	MinLinkText    int               `yaml:"minLinkText"`
	UserAgent      string            `yaml:"userAgent"`
	Aliases        map[string]string `yaml:"aliases"`
}

// AggregatorConfig controls the news search queries.
type AggregatorConfig struct {
	Disabled   bool          `yaml:"disabled"`
	BaseURL    string        `yaml:"baseUrl"`
	MaxEntries int           `yaml:"maxEntries"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ReportConfig shapes the stored window and the announcement.
type ReportConfig struct {
	WindowSize    int    `yaml:"windowSize"`
	MessagePrefix string `yaml:"messagePrefix"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Ntfy     NtfyConfig     `yaml:"ntfy"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// NtfyConfig configures the ntfy publisher. It is disabled without a topic.
type NtfyConfig struct {
	Server   string `yaml:"server"`
	Topic    string `yaml:"topic"`
	Title    string `yaml:"title"`
	Click    string `yaml:"click"`
	Tags     string `yaml:"tags"`
	Priority string `yaml:"priority"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	APIBase  string `yaml:"apiBase"`
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// TranslatorConfig points at a LibreTranslate-compatible service.
type TranslatorConfig struct {
	Endpoint        string        `yaml:"endpoint"`
	APIKey          string        `yaml:"apiKey"`
	Timeout         time.Duration `yaml:"timeout"`
	NativeLanguage  string        `yaml:"nativeLanguage"`
	TranslateTitles bool          `yaml:"translateTitles"`
}

// AnalysisConfig selects the LLM used for per-keyword recommendations.
type AnalysisConfig struct {
	Provider    string        `yaml:"provider"`
	Language    string        `yaml:"language"`
	MaxArticles int           `yaml:"maxArticles"`
	Delay       time.Duration `yaml:"delay"`
	Gemini      GeminiConfig  `yaml:"gemini"`
	ChatGPT     ChatGPTConfig `yaml:"chatgpt"`
}

// GeminiConfig holds Gemini API credentials.
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// LoggingConfig sets the slog level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// KeywordConfig seeds one keyword row of the in-memory store.
type KeywordConfig struct {
	Native  string `yaml:"native"`
	English string `yaml:"english"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// SeedKeywords returns the configured keywords as (A, B) cells.
func (c Config) SeedKeywords() [][2]string {
	out := make([][2]string, 0, len(c.Keywords))
	for _, k := range c.Keywords {
		out = append(out, [2]string{k.Native, k.English})
	}
	return out
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Database.DSN, databaseDSNEnv)
	setString(&c.Logging.Level, logLevelEnv)
	setString(&c.Logging.Format, logFormatEnv)
	setString(&c.Scheduler.CronExpression, cronEnv)
	setString(&c.Scheduler.Timezone, timezoneEnv)

	setString(&c.Analysis.Provider, analysisEnv)
	setString(&c.Analysis.Gemini.APIKey, googleAPIKeyEnv)
	setString(&c.Analysis.Gemini.Model, geminiModelEnv)
	setString(&c.Analysis.ChatGPT.APIKey, chatGPTAPIKeyEnv)
	setString(&c.Analysis.ChatGPT.Model, chatGPTModelEnv)

	setString(&c.Translator.Endpoint, translatorURLEnv)
	setString(&c.Translator.APIKey, translatorKeyEnv)

	setString(&c.Notifications.Ntfy.Server, ntfyServerEnv)
	setString(&c.Notifications.Ntfy.Topic, ntfyTopicEnv)
	setString(&c.Notifications.Ntfy.Click, ntfyClickEnv)
	setString(&c.Notifications.Telegram.BotToken, telegramTokenEnv)
	setString(&c.Notifications.Telegram.ChatID, telegramChatIDEnv)

	if v := os.Getenv(windowSizeEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Report.WindowSize = n
		} else {
			log.Printf("config: ignoring invalid %s=%q", windowSizeEnv, v)
		}
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, err = time.LoadLocation(defaultTimezone)
		if err != nil {
			loc = time.UTC
		}
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	base.Database.EnsureSchema = base.Database.EnsureSchema || override.Database.EnsureSchema

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	base.Scheduler.RunOnStart = base.Scheduler.RunOnStart || override.Scheduler.RunOnStart

	mergeFetcher(&base.Fetcher, override.Fetcher)

	if override.Aggregator.Disabled {
		base.Aggregator.Disabled = true
	}
	if override.Aggregator.BaseURL != "" {
		base.Aggregator.BaseURL = override.Aggregator.BaseURL
	}
	if override.Aggregator.MaxEntries > 0 {
		base.Aggregator.MaxEntries = override.Aggregator.MaxEntries
	}
	if override.Aggregator.Timeout > 0 {
		base.Aggregator.Timeout = override.Aggregator.Timeout
	}

	if override.Report.WindowSize > 0 {
		base.Report.WindowSize = override.Report.WindowSize
	}
	if override.Report.MessagePrefix != "" {
		base.Report.MessagePrefix = override.Report.MessagePrefix
	}

	if override.Notifications.Ntfy.Topic != "" {
		base.Notifications.Ntfy = override.Notifications.Ntfy
	}
	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram = override.Notifications.Telegram
	}

	if override.Translator.Endpoint != "" {
		base.Translator.Endpoint = override.Translator.Endpoint
	}
	if override.Translator.APIKey != "" {
		base.Translator.APIKey = override.Translator.APIKey
	}
	if override.Translator.Timeout > 0 {
		base.Translator.Timeout = override.Translator.Timeout
	}
	if override.Translator.NativeLanguage != "" {
		base.Translator.NativeLanguage = override.Translator.NativeLanguage
	}
	base.Translator.TranslateTitles = base.Translator.TranslateTitles || override.Translator.TranslateTitles

	mergeAnalysis(&base.Analysis, override.Analysis)

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}
	if len(override.Keywords) > 0 {
		base.Keywords = override.Keywords
	}

	return base
}

func mergeFetcher(base *FetcherConfig, override FetcherConfig) {
	if override.MaxConcurrency > 0 {
		base.MaxConcurrency = override.MaxConcurrency
	}
	if override.RequestTimeout > 0 {
		base.RequestTimeout = override.RequestTimeout
	}
	if override.BodyTimeout > 0 {
		base.BodyTimeout = override.BodyTimeout
	}
	if override.MaxEntries > 0 {
		base.MaxEntries = override.MaxEntries
	}
	if override.MaxLinks > 0 {
		base.MaxLinks = override.MaxLinks
	}
	if override.MinLinkText > 0 {
		base.MinLinkText = override.MinLinkText
	}
	if override.UserAgent != "" {
		base.UserAgent = override.UserAgent
	}
	if len(override.Aliases) > 0 {
		base.Aliases = override.Aliases
	}
}

func mergeAnalysis(base *AnalysisConfig, override AnalysisConfig) {
	if override.Provider != "" {
		base.Provider = override.Provider
	}
	if override.Language != "" {
		base.Language = override.Language
	}
	if override.MaxArticles > 0 {
		base.MaxArticles = override.MaxArticles
	}
	if override.Delay > 0 {
		base.Delay = override.Delay
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}
}

func defaultConfig() Config {
	return Config{
		Scheduler: SchedulerConfig{CronExpression: "0 * * * *", Timezone: defaultTimezone},
		Fetcher: FetcherConfig{
			MaxConcurrency: 10,
			RequestTimeout: 10 * time.Second,
			BodyTimeout:    5 * time.Second,
			MaxEntries:     30,
			MaxLinks:       30,
			MinLinkText:    10,
		},
		Aggregator: AggregatorConfig{
			BaseURL:    "https://news.google.com",
			MaxEntries: 10,
			Timeout:    10 * time.Second,
		},
		Report: ReportConfig{WindowSize: 20, MessagePrefix: "New:"},
		Notifications: NotificationConfig{
			Ntfy: NtfyConfig{Server: "https://ntfy.sh", Title: "NewsRadar", Tags: "newspaper", Priority: "3"},
		},
		Translator: TranslatorConfig{Timeout: 15 * time.Second, NativeLanguage: "he"},
		Analysis: AnalysisConfig{
			Provider:    ProviderNone,
			Language:    "Hebrew",
			MaxArticles: 50,
			Delay:       5 * time.Second,
			Gemini:      GeminiConfig{Model: "gemini-2.0-flash"},
			ChatGPT: ChatGPTConfig{
				Endpoint: "https://api.openai.com/v1/chat/completions",
				Model:    "gpt-4o-mini",
			},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
