// Package llm defines the completion/stream capability the companion
// consumes from LLM providers (spec.md §9: "Protocol-style LLM
// abstraction... implement as an interface/trait with HTTP-backed
// variants per provider"), plus the schedulers' structured-output schema
// and prompt templates.
package llm

import "context"

// Response is the result of one completion call.
type Response struct {
	Text  string
	JSON  map[string]any
	Model string
}

// LLM is the capability set schedulers depend on. The core never depends
// on a concrete provider — only on this interface.
type LLM interface {
	Complete(ctx context.Context, system, user string, jsonMode bool) (Response, error)
	Stream(ctx context.Context, system, user string) (<-chan string, error)
}
