package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Mindburn-Labs/companion/pkg/config"
)

func TestBuild_NoProviderReturnsNil(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLMProvider = ""
	assert.Nil(t, Build(cfg, Secrets{}))
}

func TestBuild_OllamaRequiresNoSecret(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLMProvider = "ollama"
	assert.NotNil(t, Build(cfg, Secrets{}))
}

func TestBuild_OpenAIWithoutKeyReturnsNil(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLMProvider = "openai"
	assert.Nil(t, Build(cfg, Secrets{}))
}

func TestBuild_OpenAIWithKeyReturnsProvider(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLMProvider = "openai"
	assert.NotNil(t, Build(cfg, Secrets{OpenAIAPIKey: "sk-test"}))
}

func TestBuild_AnthropicWithKeyReturnsProvider(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLMProvider = "anthropic"
	assert.NotNil(t, Build(cfg, Secrets{AnthropicAPIKey: "sk-test"}))
}

func TestBuild_UnknownProviderReturnsNil(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLMProvider = "bedrock"
	assert.Nil(t, Build(cfg, Secrets{}))
}
