// Package config loads the companion's runtime configuration from
// environment variables, with an optional YAML overlay file for values
// operators prefer to keep out of the process environment.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every recognized option from spec.md §6, plus the
// additive keys this implementation layers on top (Redis coordination,
// LLM rate limiting, the ledger's secondary index, OpenTelemetry).
type Config struct {
	// Auto-approve policy (spec.md §6).
	Policy              string `yaml:"policy"`
	SelfEmail           string `yaml:"self_email"`
	AutoApproveTTLS     int    `yaml:"auto_approve_ttl_s"`
	EventWindowDays     int    `yaml:"event_window_days"`
	EventMaxDurationMin int    `yaml:"event_max_duration_min"`
	EventStartHour      int    `yaml:"event_start_hour"`
	EventEndHour        int    `yaml:"event_end_hour"`
	AutoCalendarID      string `yaml:"auto_calendar_id"`
	ExecSecret          string `yaml:"-"` // never sourced from YAML; env/process memory only

	// LLM provider selection.
	LLMProvider   string `yaml:"llm_provider"`
	OllamaBaseURL string `yaml:"ollama_base_url"`
	OllamaModel   string `yaml:"ollama_model"`
	AnthropicModel string `yaml:"anthropic_model"`
	OpenAIModel   string `yaml:"openai_model"`

	// Forum feed reader.
	ForumEnabled         bool   `yaml:"forum_enabled"`
	ForumBaseURL         string `yaml:"forum_base_url"`
	ForumCredentialsPath string `yaml:"forum_credentials_path"`
	ForumFeedSort        string `yaml:"forum_feed_sort"`
	ForumFeedLimit       int    `yaml:"forum_feed_limit"`

	// Coding scheduler.
	CodeRepos []string `yaml:"code_repos"`

	// Executor writer endpoints. The auth token, like ExecSecret, is never
	// sourced from the YAML overlay.
	EmailWebhookURL    string `yaml:"email_webhook_url"`
	CalendarWebhookURL string `yaml:"calendar_webhook_url"`
	WriterAuthToken    string `yaml:"-"`

	// Storage roots.
	DataDir string `yaml:"data_dir"`

	// Additive ambient-stack keys.
	RedisAddr       string `yaml:"redis_addr"`
	LLMRatePerSec   float64 `yaml:"llm_rate_per_sec"`
	LLMBurst        int     `yaml:"llm_burst"`
	LedgerIndexPath string  `yaml:"ledger_index_path"`
	OTLPEndpoint    string  `yaml:"otlp_endpoint"`
}

// Defaults mirror spec.md §6's stated defaults (ttl 600s, window 7 days).
func Defaults() Config {
	return Config{
		Policy:              "conservative",
		AutoApproveTTLS:     600,
		EventWindowDays:     7,
		EventMaxDurationMin: 120,
		EventStartHour:      8,
		EventEndHour:        20,
		LLMProvider:         "",
		OllamaBaseURL:       "http://localhost:11434",
		OllamaModel:         "llama3",
		ForumFeedSort:    "new",
		ForumFeedLimit:   20,
		DataDir:             "./data",
		LLMRatePerSec:       1,
		LLMBurst:            2,
	}
}

// Load builds a Config from Defaults, an optional YAML overlay (if
// COMPANION_CONFIG_FILE is set and the file exists), then
// environment variables, which take final precedence. The HMAC secret is
// read only from the environment, never from the YAML file, so it is
// never accidentally committed to an operator's config repo.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("COMPANION_CONFIG_FILE"); path != "" {
		if err := overlayYAML(&cfg, path); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func overlayYAML(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(raw, cfg)
}

func applyEnv(cfg *Config) {
	str(&cfg.Policy, "COMPANION_POLICY")
	str(&cfg.SelfEmail, "COMPANION_SELF_EMAIL")
	intv(&cfg.AutoApproveTTLS, "COMPANION_AUTO_APPROVE_TTL_S")
	intv(&cfg.EventWindowDays, "COMPANION_EVENT_WINDOW_DAYS")
	intv(&cfg.EventMaxDurationMin, "COMPANION_EVENT_MAX_DURATION_MIN")
	intv(&cfg.EventStartHour, "COMPANION_EVENT_START_HOUR")
	intv(&cfg.EventEndHour, "COMPANION_EVENT_END_HOUR")
	str(&cfg.AutoCalendarID, "COMPANION_AUTO_CALENDAR_ID")
	str(&cfg.ExecSecret, "COMPANION_EXEC_SECRET")

	str(&cfg.LLMProvider, "COMPANION_LLM_PROVIDER")
	str(&cfg.OllamaBaseURL, "COMPANION_OLLAMA_BASE_URL")
	str(&cfg.OllamaModel, "COMPANION_OLLAMA_MODEL")
	str(&cfg.AnthropicModel, "COMPANION_ANTHROPIC_MODEL")
	str(&cfg.OpenAIModel, "COMPANION_OPENAI_MODEL")

	boolv(&cfg.ForumEnabled, "COMPANION_FORUM_ENABLED")
	str(&cfg.ForumBaseURL, "COMPANION_FORUM_BASE_URL")
	str(&cfg.ForumCredentialsPath, "COMPANION_FORUM_CREDENTIALS_PATH")
	str(&cfg.ForumFeedSort, "COMPANION_FORUM_FEED_SORT")
	intv(&cfg.ForumFeedLimit, "COMPANION_FORUM_FEED_LIMIT")

	str(&cfg.EmailWebhookURL, "COMPANION_EMAIL_WEBHOOK_URL")
	str(&cfg.CalendarWebhookURL, "COMPANION_CALENDAR_WEBHOOK_URL")
	str(&cfg.WriterAuthToken, "COMPANION_WRITER_AUTH_TOKEN")

	str(&cfg.DataDir, "COMPANION_DATA_DIR")
	str(&cfg.RedisAddr, "COMPANION_REDIS_ADDR")
	floatv(&cfg.LLMRatePerSec, "COMPANION_LLM_RATE_PER_SEC")
	intv(&cfg.LLMBurst, "COMPANION_LLM_BURST")
	str(&cfg.LedgerIndexPath, "COMPANION_LEDGER_INDEX_PATH")
	str(&cfg.OTLPEndpoint, "COMPANION_OTLP_ENDPOINT")
}

func str(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func intv(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func floatv(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func boolv(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1"
	}
}

// AutoApproveEnabled reports whether the configured policy and secret
// together permit the auto-approve engine to mint tokens (spec.md §5:
// "An empty secret must abort... and disable auto-approval").
func (c Config) AutoApproveEnabled() bool {
	return c.Policy == "conservative" && c.ExecSecret != ""
}
