// Package gate implements the stateless admission filter between
// schedulers and the arbiter: a closed allow-list of intent types plus
// range checks on priority and effort.
package gate

import (
	"github.com/Mindburn-Labs/companion/pkg/types"
)

// Reason codes returned in a Decision.
const (
	ReasonOK                  = "ok"
	ReasonTypeNotAllowlisted  = "type_not_allowlisted"
	ReasonUnknownDomain       = "unknown_domain"
	ReasonBadPriority         = "bad_priority"
	ReasonBadEffort           = "bad_effort"
	ReasonBadRisk             = "bad_risk"
)

// AllowedTypes is the closed set of intent types the gate admits
// (spec.md §6). Messages, calendar, coding, and forum/moltbook share one
// namespace.
var AllowedTypes = map[string]bool{
	"draft_reply":             true,
	"triage_summary":          true,
	"ask_clarifying_question": true,
	"enqueue_send_draft":      true,
	"agenda_draft":            true,
	"conflict_report":         true,
	"propose_slots":           true,
	"enqueue_event_draft":     true,
	"run_tests":               true,
	"draft_patch":             true,
	"draft_forum_reply":       true,
	"draft_forum_post":        true,
}

// allowedDomains is the closed domain set.
var allowedDomains = map[types.Domain]bool{
	types.DomainMessages: true,
	types.DomainCalendar: true,
	types.DomainCoding:   true,
	types.DomainForum:    true,
}

// draftOnlyTypes never persist an external-effect or irreversible action;
// an intent of one of these types claiming otherwise in its Risk is
// almost certainly a scheduler bug (or a prompt-injected LLM proposal),
// so the gate rejects it rather than trusting the claim silently.
var draftOnlyTypes = map[string]bool{
	"triage_summary":          true,
	"ask_clarifying_question": true,
	"agenda_draft":            true,
	"conflict_report":         true,
	"propose_slots":           true,
	"draft_patch":             true,
}

// Gate is stateless; it does not consult any state bundle.
type Gate struct{}

// New returns a ready-to-use Gate.
func New() *Gate {
	return &Gate{}
}

// Decide validates intent's shape and returns the admission Decision.
func (g *Gate) Decide(intent types.Intent) types.Decision {
	if !AllowedTypes[intent.Type] {
		return types.Decision{Intent: intent, Accepted: false, Reason: ReasonTypeNotAllowlisted}
	}
	if !allowedDomains[intent.Domain] {
		return types.Decision{Intent: intent, Accepted: false, Reason: ReasonUnknownDomain}
	}
	if intent.Value < 0.0 || intent.Value > 1.0 || intent.Urgency < 0.0 || intent.Urgency > 1.0 {
		return types.Decision{Intent: intent, Accepted: false, Reason: ReasonBadPriority}
	}
	if intent.EffortSeconds < 0 || intent.EffortSeconds > 3600 {
		return types.Decision{Intent: intent, Accepted: false, Reason: ReasonBadEffort}
	}
	if draftOnlyTypes[intent.Type] && (intent.Risk.ExternalEffect || intent.Risk.Irreversible) {
		return types.Decision{Intent: intent, Accepted: false, Reason: ReasonBadRisk}
	}
	return types.Decision{Intent: intent, Accepted: true, Reason: ReasonOK}
}
