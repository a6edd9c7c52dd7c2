package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Mindburn-Labs/companion/pkg/types"
)

func baseIntent() types.Intent {
	return types.Intent{
		ID:            "i1",
		Domain:        types.DomainMessages,
		Type:          "draft_reply",
		Value:         0.5,
		Urgency:       0.5,
		EffortSeconds: 60,
	}
}

func TestDecide_Accepts(t *testing.T) {
	d := New().Decide(baseIntent())
	assert.True(t, d.Accepted)
	assert.Equal(t, ReasonOK, d.Reason)
}

func TestDecide_RejectsUnknownType(t *testing.T) {
	in := baseIntent()
	in.Type = "delete_everything"
	d := New().Decide(in)
	assert.False(t, d.Accepted)
	assert.Equal(t, ReasonTypeNotAllowlisted, d.Reason)
}

func TestDecide_RejectsUnknownDomain(t *testing.T) {
	in := baseIntent()
	in.Domain = types.Domain("finance")
	d := New().Decide(in)
	assert.False(t, d.Accepted)
	assert.Equal(t, ReasonUnknownDomain, d.Reason)
}

func TestDecide_RejectsBadPriority(t *testing.T) {
	in := baseIntent()
	in.Value = 1.5
	d := New().Decide(in)
	assert.False(t, d.Accepted)
	assert.Equal(t, ReasonBadPriority, d.Reason)

	in2 := baseIntent()
	in2.Urgency = -0.1
	d2 := New().Decide(in2)
	assert.False(t, d2.Accepted)
	assert.Equal(t, ReasonBadPriority, d2.Reason)
}

func TestDecide_RejectsBadEffort(t *testing.T) {
	in := baseIntent()
	in.EffortSeconds = 3601
	d := New().Decide(in)
	assert.False(t, d.Accepted)
	assert.Equal(t, ReasonBadEffort, d.Reason)
}

func TestDecide_RejectsDraftOnlyClaimingExternalEffect(t *testing.T) {
	in := baseIntent()
	in.Type = "agenda_draft"
	in.Risk.ExternalEffect = true
	d := New().Decide(in)
	assert.False(t, d.Accepted)
	assert.Equal(t, ReasonBadRisk, d.Reason)
}

func TestDecide_Monotonic(t *testing.T) {
	in := baseIntent()
	g := New()
	first := g.Decide(in)
	second := g.Decide(in)
	assert.Equal(t, first, second)
}
