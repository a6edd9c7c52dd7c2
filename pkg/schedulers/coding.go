package schedulers

import (
	"github.com/google/uuid"

	"github.com/Mindburn-Labs/companion/pkg/types"
)

// Coding proposes one run_tests intent per configured repository.
type Coding struct {
	State RepoState
}

func (c Coding) Propose() []types.Intent {
	repos := c.State.Repos
	if len(repos) > maxIntentsPerTick {
		repos = repos[:maxIntentsPerTick]
	}

	intents := make([]types.Intent, 0, len(repos))
	for _, repo := range repos {
		intents = append(intents, types.Intent{
			ID:     uuid.NewString(),
			Domain: types.DomainCoding,
			Type:   "run_tests",
			Payload: map[string]any{
				"repo":  repo,
				"suite": "go test ./...",
			},
			Value:         0.6,
			Urgency:       0.4,
			EffortSeconds: 600,
			Preconditions: []string{"repo_available"},
		})
	}
	return intents
}
