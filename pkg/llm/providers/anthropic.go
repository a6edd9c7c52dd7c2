package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/Mindburn-Labs/companion/pkg/llm"
)

// Anthropic talks to the Messages API.
type Anthropic struct {
	client  *http.Client
	limiter *rate.Limiter
	apiKey  string
	baseURL string
	model   string
}

func NewAnthropic(client *http.Client, limiter *rate.Limiter, apiKey, model string) *Anthropic {
	return &Anthropic{client: client, limiter: limiter, apiKey: apiKey, baseURL: "https://api.anthropic.com", model: model}
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
	Usage   map[string]any          `json:"usage"`
}

func (a *Anthropic) Complete(ctx context.Context, system, user string, jsonMode bool) (llm.Response, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return llm.Response{}, err
	}

	payload := map[string]any{
		"model":      a.model,
		"max_tokens": 800,
		"system":     system,
		"messages":   []map[string]string{{"role": "user", "content": user}},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return llm.Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(raw))
	if err != nil {
		return llm.Response{}, err
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("content-type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return llm.Response{}, fmt.Errorf("anthropic: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Response{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return llm.Response{}, fmt.Errorf("anthropic: status %d: %s", resp.StatusCode, string(body))
	}

	var out anthropicResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return llm.Response{}, fmt.Errorf("anthropic: decode: %w", err)
	}

	var sb strings.Builder
	for _, c := range out.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	text := strings.TrimSpace(sb.String())

	var js map[string]any
	if jsonMode {
		_ = json.Unmarshal([]byte(text), &js)
	}
	return llm.Response{Text: text, JSON: js, Model: a.model}, nil
}

func (a *Anthropic) Stream(ctx context.Context, system, user string) (<-chan string, error) {
	resp, err := a.Complete(ctx, system, user, false)
	if err != nil {
		return nil, err
	}
	return chunkString(resp.Text, 120), nil
}
