// Package writers implements the executor's external-effect collaborators
// (spec.md §6: "send-email, create-event, create-post, reply-post") as
// rate-limited HTTP clients, mirroring the provider shape pkg/llm/providers
// uses for its HTTP-backed LLM implementations.
package writers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// Email POSTs a send-email request to a configured webhook.
type Email struct {
	client  *http.Client
	limiter *rate.Limiter
	url     string
	token   string
}

func NewEmail(client *http.Client, limiter *rate.Limiter, url, token string) *Email {
	return &Email{client: client, limiter: limiter, url: url, token: token}
}

func (e *Email) SendEmail(ctx context.Context, to, subject, body string) error {
	if e.url == "" {
		return fmt.Errorf("writers: no email webhook configured")
	}
	return postJSON(ctx, e.client, e.limiter, e.url, e.token, map[string]any{
		"to": to, "subject": subject, "body": body,
	})
}

// Calendar POSTs a create-event request to a configured webhook.
type Calendar struct {
	client  *http.Client
	limiter *rate.Limiter
	url     string
	token   string
}

func NewCalendar(client *http.Client, limiter *rate.Limiter, url, token string) *Calendar {
	return &Calendar{client: client, limiter: limiter, url: url, token: token}
}

func (c *Calendar) CreateEvent(ctx context.Context, calendarID, title, startISO, endISO, description string, attendees []string) error {
	if c.url == "" {
		return fmt.Errorf("writers: no calendar webhook configured")
	}
	if attendees == nil {
		attendees = []string{}
	}
	return postJSON(ctx, c.client, c.limiter, c.url, c.token, map[string]any{
		"calendar_id": calendarID, "title": title, "start_iso": startISO,
		"end_iso": endISO, "description": description, "attendees": attendees,
	})
}

// Forum POSTs create-post and reply-post requests against the configured
// forum base URL, reusing the same base the feed reader polls.
type Forum struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	token   string
}

func NewForum(client *http.Client, limiter *rate.Limiter, baseURL, token string) *Forum {
	return &Forum{client: client, limiter: limiter, baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

func (f *Forum) CreatePost(ctx context.Context, title, body string) error {
	if f.baseURL == "" {
		return fmt.Errorf("writers: no forum base URL configured")
	}
	return postJSON(ctx, f.client, f.limiter, f.baseURL+"/posts", f.token, map[string]any{
		"title": title, "body": body,
	})
}

func (f *Forum) ReplyPost(ctx context.Context, postID, body string) error {
	if f.baseURL == "" {
		return fmt.Errorf("writers: no forum base URL configured")
	}
	return postJSON(ctx, f.client, f.limiter, f.baseURL+"/posts/"+postID+"/replies", f.token, map[string]any{
		"body": body,
	})
}

func postJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, url, token string, payload map[string]any) error {
	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("writers: request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("writers: %s returned status %d: %s", url, resp.StatusCode, string(body))
	}
	return nil
}
