package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkString_SplitsIntoSizedPieces(t *testing.T) {
	ch := chunkString("abcdefgh", 3)
	var got []string
	for c := range ch {
		got = append(got, c)
	}
	assert.Equal(t, []string{"abc", "def", "gh"}, got)
}

func TestChunkString_EmptyInputYieldsNoChunks(t *testing.T) {
	ch := chunkString("", 10)
	var got []string
	for c := range ch {
		got = append(got, c)
	}
	assert.Empty(t, got)
}
