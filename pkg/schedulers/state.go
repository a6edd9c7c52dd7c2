// Package schedulers turns per-domain input state into candidate
// intents (spec.md §4.4). Each scheduler caps its output at 10 intents
// per tick and never trusts its own output to satisfy the gate.
package schedulers

// InboxThread is one normalized inbox entry (already read by an
// out-of-scope reader adapter per spec.md §1).
type InboxThread struct {
	ThreadID  string
	MessageID string
	From      string
	Subject   string
	Snippet   string
	Unread    bool
	Important bool
}

// InboxState bundles the messages domain's input.
type InboxState struct {
	Threads []InboxThread
}

// CalendarEvent is one normalized calendar entry.
type CalendarEvent struct {
	EventID     string
	Title       string
	When        string
	Description string
}

// CalendarState bundles the calendar domain's input.
type CalendarState struct {
	Events []CalendarEvent
}

// RepoState bundles the coding domain's input: the configured
// repositories to run tests against.
type RepoState struct {
	Repos []string
}

// FeedPost is one normalized forum feed entry.
type FeedPost struct {
	ID      string
	Title   string
	Content string
}

// FeedState bundles the forum domain's input.
type FeedState struct {
	Posts []FeedPost
}

const maxIntentsPerTick = 10
