package schedulers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForum_SkipsPostsWithEmptyID(t *testing.T) {
	f := Forum{State: FeedState{Posts: []FeedPost{
		{ID: "", Title: "no id"},
		{ID: "p1", Title: "has id"},
	}}}

	intents := f.Propose()
	require.Len(t, intents, 1)
	assert.Equal(t, "p1", intents[0].Payload["post_id"])
	assert.Equal(t, "draft_forum_reply", intents[0].Type)
}

func TestForum_TruncatesLongContent(t *testing.T) {
	long := make([]byte, 3000)
	for i := range long {
		long[i] = 'a'
	}
	f := Forum{State: FeedState{Posts: []FeedPost{{ID: "p1", Content: string(long)}}}}

	intents := f.Propose()
	require.Len(t, intents, 1)
	assert.Len(t, intents[0].Payload["content"], 2000)
}
