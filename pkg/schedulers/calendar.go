package schedulers

import (
	"github.com/google/uuid"

	"github.com/Mindburn-Labs/companion/pkg/types"
)

// Calendar proposes one agenda_draft intent per event.
type Calendar struct {
	State CalendarState
}

func (c Calendar) Propose() []types.Intent {
	events := c.State.Events
	if len(events) > maxIntentsPerTick {
		events = events[:maxIntentsPerTick]
	}

	intents := make([]types.Intent, 0, len(events))
	for _, ev := range events {
		intents = append(intents, types.Intent{
			ID:     uuid.NewString(),
			Domain: types.DomainCalendar,
			Type:   "agenda_draft",
			Payload: map[string]any{
				"event_id":    ev.EventID,
				"title":       ev.Title,
				"when":        ev.When,
				"description": ev.Description,
			},
			Value:         0.6,
			Urgency:       0.4,
			EffortSeconds: 120,
			Preconditions: []string{"has_calendar_data"},
		})
	}
	return intents
}
