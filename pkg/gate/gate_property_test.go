//go:build property
// +build property

package gate_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Mindburn-Labs/companion/pkg/gate"
	"github.com/Mindburn-Labs/companion/pkg/types"
)

var allowedTypes = []string{
	"draft_reply", "triage_summary", "ask_clarifying_question",
	"enqueue_send_draft", "agenda_draft", "conflict_report",
	"propose_slots", "enqueue_event_draft", "run_tests", "draft_patch",
	"draft_forum_reply", "draft_forum_post",
}

var allowedDomains = []types.Domain{
	types.DomainMessages, types.DomainCalendar, types.DomainCoding, types.DomainForum,
}

// Property 6 from spec.md §8: an intent that passes the gate once will
// pass again given identical fields (the gate is stateless and consults
// nothing but the intent itself).
func TestGate_Monotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	g := gate.New()

	properties.Property("identical intents decide identically", prop.ForAll(
		func(typeIdx, domainIdx int, value, urgency float64, effortS int) bool {
			intent := types.Intent{
				ID:            "i1",
				Domain:        allowedDomains[domainIdx%len(allowedDomains)],
				Type:          allowedTypes[typeIdx%len(allowedTypes)],
				Value:         value,
				Urgency:       urgency,
				EffortSeconds: effortS,
			}

			d1 := g.Decide(intent)
			d2 := g.Decide(intent)
			return d1.Accepted == d2.Accepted && d1.Reason == d2.Reason
		},
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
		gen.Float64Range(-1, 2),
		gen.Float64Range(-1, 2),
		gen.IntRange(-10, 4000),
	))

	properties.Property("a decision that accepts is reproduced by a second identical call", prop.ForAll(
		func(typeIdx, domainIdx int) bool {
			intent := types.Intent{
				ID:            "i1",
				Domain:        allowedDomains[domainIdx%len(allowedDomains)],
				Type:          allowedTypes[typeIdx%len(allowedTypes)],
				Value:         0.5,
				Urgency:       0.5,
				EffortSeconds: 60,
			}

			first := g.Decide(intent)
			if !first.Accepted {
				return true // nothing to re-verify
			}
			second := g.Decide(intent)
			return second.Accepted
		},
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
