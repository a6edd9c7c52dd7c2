package schedulers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoding_ProposeOnePerRepo(t *testing.T) {
	c := Coding{State: RepoState{Repos: []string{"repo-a", "repo-b"}}}
	intents := c.Propose()
	require.Len(t, intents, 2)
	assert.Equal(t, "run_tests", intents[0].Type)
	assert.Equal(t, "repo-a", intents[0].Payload["repo"])
}
