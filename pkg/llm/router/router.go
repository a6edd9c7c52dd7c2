// Package router selects a concrete LLM provider implementation from
// configuration, keeping pkg/llm itself provider-agnostic (it only
// declares the interface other packages program against).
package router

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Mindburn-Labs/companion/pkg/config"
	"github.com/Mindburn-Labs/companion/pkg/llm"
	"github.com/Mindburn-Labs/companion/pkg/llm/providers"
)

// Secrets bundles the provider API keys, sourced from the environment
// only (never the YAML config overlay), matching the HMAC exec secret's
// handling in pkg/config.
type Secrets struct {
	OpenAIAPIKey    string
	AnthropicAPIKey string
}

// Build selects a provider from cfg.LLMProvider, or returns nil if none
// is configured — schedulers must then fall back to their heuristic path
// per spec.md §4.4. All providers share one outbound rate limiter so a
// misbehaving scheduler cannot burst past the configured ceiling,
// grounded on the teacher's BaseConnector (pkg/arc/connector.go).
func Build(cfg config.Config, secrets Secrets) llm.LLM {
	provider := strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if provider == "" {
		return nil
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.LLMRatePerSec), cfg.LLMBurst)
	httpClient := &http.Client{Timeout: 60 * time.Second}

	switch provider {
	case "ollama":
		model := cfg.OllamaModel
		if model == "" {
			model = "llama3"
		}
		return providers.NewOllama(httpClient, limiter, cfg.OllamaBaseURL, model)
	case "openai":
		if secrets.OpenAIAPIKey == "" {
			return nil
		}
		model := cfg.OpenAIModel
		if model == "" {
			model = "gpt-4.1-mini"
		}
		return providers.NewOpenAI(httpClient, limiter, secrets.OpenAIAPIKey, model)
	case "anthropic":
		if secrets.AnthropicAPIKey == "" {
			return nil
		}
		model := cfg.AnthropicModel
		if model == "" {
			model = "claude-3-5-sonnet-latest"
		}
		return providers.NewAnthropic(httpClient, limiter, secrets.AnthropicAPIKey, model)
	default:
		return nil
	}
}
