// Package arbiter implements the per-tick single-winner selector.
package arbiter

import "github.com/Mindburn-Labs/companion/pkg/types"

// Global picks one intent out of a candidate list by
// (0.6*urgency + 0.4*value) / max(1, effort_s), breaking ties by original
// order (the first maximal element wins).
type Global struct{}

// New returns a ready-to-use Global arbiter.
func New() *Global {
	return &Global{}
}

// Choose returns the winning intent and true, or the zero value and false
// if intents is empty.
func (a *Global) Choose(intents []types.Intent) (types.Intent, bool) {
	if len(intents) == 0 {
		return types.Intent{}, false
	}

	best := intents[0]
	bestScore := score(best)
	for _, it := range intents[1:] {
		s := score(it)
		if s > bestScore {
			best = it
			bestScore = s
		}
	}
	return best, true
}

func score(it types.Intent) float64 {
	denom := it.EffortSeconds
	if denom < 1 {
		denom = 1
	}
	return (it.Urgency*0.6 + it.Value*0.4) / float64(denom)
}
