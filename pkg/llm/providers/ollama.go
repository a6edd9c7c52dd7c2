// Package providers holds the HTTP-backed LLM implementations selected
// by pkg/llm's router. Each one implements llm.LLM.
package providers

import (
	"bufio"
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

// Ollama talks to a local Ollama server's /api/generate endpoint.
type Ollama struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	model   string
}

func NewOllama(client *http.Client, limiter *rate.Limiter, baseURL, model string) *Ollama {
	return &Ollama{client: client, limiter: limiter, baseURL: strings.TrimRight(baseURL, "/"), model: model}
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (o *Ollama) Complete(ctx context.Context, system, user string, jsonMode bool) (llm.Response, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return llm.Response{}, err
	}

	prompt := fmt.Sprintf("<<SYS>>\n%s\n<</SYS>>\n\n%s", system, user)
	payload := map[string]any{"model": o.model, "prompt": prompt, "stream": false}
	raw, err := json.Marshal(payload)
	if err != nil {
		return llm.Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(raw))
	if err != nil {
		return llm.Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return llm.Response{}, fmt.Errorf("ollama: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Response{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return llm.Response{}, fmt.Errorf("ollama: status %d: %s", resp.StatusCode, string(body))
	}

	var out ollamaResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return llm.Response{}, fmt.Errorf("ollama: decode: %w", err)
	}

	text := strings.TrimSpace(out.Response)
	var js map[string]any
	if jsonMode {
		_ = json.Unmarshal([]byte(text), &js)
	}
	return llm.Response{Text: text, JSON: js, Model: o.model}, nil
}

func (o *Ollama) Stream(ctx context.Context, system, user string) (<-chan string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("<<SYS>>\n%s\n<</SYS>>\n\n%s", system, user)
	payload := map[string]any{"model": o.model, "prompt": prompt, "stream": true}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: request: %w", err)
	}

	ch := make(chan string)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line := sc.Bytes()
			if len(line) == 0 {
				continue
			}
			var chunk ollamaResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				continue
			}
			if chunk.Response != "" {
				select {
				case ch <- chunk.Response:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
