package schedulers

import (
	"github.com/google/uuid"

	"github.com/Mindburn-Labs/companion/pkg/types"
)

// Forum proposes one draft_forum_reply intent per feed item with a
// non-empty id.
type Forum struct {
	State FeedState
}

func (f Forum) Propose() []types.Intent {
	posts := f.State.Posts
	if len(posts) > maxIntentsPerTick {
		posts = posts[:maxIntentsPerTick]
	}

	intents := make([]types.Intent, 0, len(posts))
	for _, post := range posts {
		if post.ID == "" {
			continue
		}
		content := post.Content
		if len(content) > 2000 {
			content = content[:2000]
		}
		intents = append(intents, types.Intent{
			ID:     uuid.NewString(),
			Domain: types.DomainForum,
			Type:   "draft_forum_reply",
			Payload: map[string]any{
				"post_id": post.ID,
				"title":   post.Title,
				"content": content,
			},
			Value:         0.4,
			Urgency:       0.3,
			EffortSeconds: 120,
			Preconditions: []string{"has_forum_feed"},
		})
	}
	return intents
}
