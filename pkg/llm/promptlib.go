package llm

import "fmt"

// SystemMessagesScheduler is the system prompt for the messages scheduler's
// LLM-driven intent proposal path.
func SystemMessagesScheduler() string {
	return "Propose draft-only message intents. Return strict JSON only."
}

// UserMessagesScheduler builds the user prompt for the messages scheduler,
// given the sanitized inbox threads as a JSON string.
func UserMessagesScheduler(threadsJSON string) string {
	return fmt.Sprintf(
		"Given inbox threads, propose 3-8 intents. "+
			"Allowed types: draft_reply, triage_summary, ask_clarifying_question. "+
			"Return JSON: {\"intents\":[...]}\n\nInbox threads:\n%s",
		threadsJSON,
	)
}

func SystemDraftEmail() string {
	return "Write a concise email draft. Draft-only. Return only the body."
}

func UserDraftEmail(subject, context string) string {
	return fmt.Sprintf("Subject: %s\n\nContext:\n%s\n\nWrite the draft reply body.", subject, context)
}

func SystemForumReply() string {
	return "Write a concise forum comment reply. Draft-only. Return only the reply body."
}

func UserForumReply(title, content string) string {
	return fmt.Sprintf("Post title: %s\n\nPost content:\n%s\n\nWrite a helpful, concise reply.", title, content)
}

func SystemForumPost() string {
	return "Write a concise forum post. Draft-only. Return only the post body."
}

func UserForumPost(title, context string) string {
	return fmt.Sprintf("Post title: %s\n\nContext:\n%s\n\nWrite the post body.", title, context)
}
