//go:build property
// +build property

package arbiter_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Mindburn-Labs/companion/pkg/arbiter"
	"github.com/Mindburn-Labs/companion/pkg/types"
)

// Property 7 from spec.md §8: the same input list yields the same chosen
// intent, run after run.
func TestArbiter_Determinism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	a := arbiter.New()

	properties.Property("choosing from the same list twice picks the same intent", prop.ForAll(
		func(values, urgencies []float64, efforts []int) bool {
			n := len(values)
			if len(urgencies) < n {
				n = len(urgencies)
			}
			if len(efforts) < n {
				n = len(efforts)
			}
			if n == 0 {
				return true
			}

			intents := make([]types.Intent, n)
			for i := 0; i < n; i++ {
				intents[i] = types.Intent{
					ID:            string(rune('a' + i%26)),
					Value:         values[i],
					Urgency:       urgencies[i],
					EffortSeconds: efforts[i],
				}
			}

			first, ok1 := a.Choose(intents)
			second, ok2 := a.Choose(intents)
			return ok1 == ok2 && first.ID == second.ID
		},
		gen.SliceOf(gen.Float64Range(0, 1)),
		gen.SliceOf(gen.Float64Range(0, 1)),
		gen.SliceOf(gen.IntRange(0, 3600)),
	))

	properties.TestingRun(t)
}
