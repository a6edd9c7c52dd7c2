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

// OpenAI talks to the OpenAI Responses API.
type OpenAI struct {
	client  *http.Client
	limiter *rate.Limiter
	apiKey  string
	baseURL string
	model   string
}

func NewOpenAI(client *http.Client, limiter *rate.Limiter, apiKey, model string) *OpenAI {
	return &OpenAI{client: client, limiter: limiter, apiKey: apiKey, baseURL: "https://api.openai.com", model: model}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	OutputText string         `json:"output_text"`
	Usage      map[string]any `json:"usage"`
}

func (o *OpenAI) Complete(ctx context.Context, system, user string, jsonMode bool) (llm.Response, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return llm.Response{}, err
	}

	payload := map[string]any{
		"model": o.model,
		"input": []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	if jsonMode {
		payload["text"] = map[string]any{"format": map[string]any{"type": "json_object"}}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return llm.Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/responses", bytes.NewReader(raw))
	if err != nil {
		return llm.Response{}, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return llm.Response{}, fmt.Errorf("openai: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Response{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return llm.Response{}, fmt.Errorf("openai: status %d: %s", resp.StatusCode, string(body))
	}

	var out openAIResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return llm.Response{}, fmt.Errorf("openai: decode: %w", err)
	}

	text := strings.TrimSpace(out.OutputText)
	var js map[string]any
	if jsonMode {
		_ = json.Unmarshal([]byte(text), &js)
	}
	return llm.Response{Text: text, JSON: js, Model: o.model}, nil
}

// Stream has no native streaming support wired in the Responses payload
// above, so it generates once and chunks the text, matching the original
// Python implementation's fallback.
func (o *OpenAI) Stream(ctx context.Context, system, user string) (<-chan string, error) {
	resp, err := o.Complete(ctx, system, user, false)
	if err != nil {
		return nil, err
	}
	return chunkString(resp.Text, 120), nil
}
