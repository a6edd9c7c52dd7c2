package queue

import (
	"encoding/json"
	"fmt"

	"github.com/Mindburn-Labs/companion/pkg/canonicalize"
)

// SendEmailSpec carries enough to send one reply deterministically.
type SendEmailSpec struct {
	Qid               string  `json:"qid"`
	ThreadID          string  `json:"thread_id"`
	To                string  `json:"to"`
	Subject           string  `json:"subject"`
	BodyMDPath        string  `json:"body_md_path"`
	ReplyToMessageID  *string `json:"reply_to_message_id"`
}

// Hash computes the spec fingerprint: SHA-256 of the canonical JSON
// encoding of the spec's fields.
func (s SendEmailSpec) Hash() (string, error) { return hashSpec(s) }

// AsMap renders the spec for embedding into a queue item.
func (s SendEmailSpec) AsMap() map[string]any {
	return map[string]any{
		"qid":                  s.Qid,
		"thread_id":            s.ThreadID,
		"to":                   s.To,
		"subject":              s.Subject,
		"body_md_path":         s.BodyMDPath,
		"reply_to_message_id":  s.ReplyToMessageID,
	}
}

// DecodeSendEmailSpec reconstructs a typed spec from a generic map,
// erroring if a required field is missing or the wrong type — the
// auto-approve engine treats that as a drop-this-item skip, not a crash.
func DecodeSendEmailSpec(m map[string]any) (SendEmailSpec, error) {
	qid, ok := stringField(m, "qid")
	if !ok {
		return SendEmailSpec{}, fmt.Errorf("queue: send_email spec missing qid")
	}
	s := SendEmailSpec{
		Qid:        qid,
		ThreadID:   optionalString(m, "thread_id"),
		To:         optionalString(m, "to"),
		Subject:    optionalString(m, "subject"),
		BodyMDPath: optionalString(m, "body_md_path"),
	}
	switch v := m["reply_to_message_id"].(type) {
	case string:
		s.ReplyToMessageID = &v
	case *string:
		if v != nil {
			c := *v
			s.ReplyToMessageID = &c
		}
	}
	return s, nil
}

// CreateEventSpec carries enough to create one calendar event
// deterministically.
type CreateEventSpec struct {
	Qid                string   `json:"qid"`
	CalendarID         string   `json:"calendar_id"`
	Title              string   `json:"title"`
	StartISO           string   `json:"start_iso"`
	EndISO             string   `json:"end_iso"`
	DescriptionMDPath  string   `json:"description_md_path"`
	Attendees          []string `json:"attendees"`
}

func (s CreateEventSpec) Hash() (string, error) {
	if s.Attendees == nil {
		s.Attendees = []string{}
	}
	return hashSpec(s)
}

func (s CreateEventSpec) AsMap() map[string]any {
	attendees := s.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	return map[string]any{
		"qid":                 s.Qid,
		"calendar_id":         s.CalendarID,
		"title":               s.Title,
		"start_iso":           s.StartISO,
		"end_iso":             s.EndISO,
		"description_md_path": s.DescriptionMDPath,
		"attendees":           attendees,
	}
}

func DecodeCreateEventSpec(m map[string]any) (CreateEventSpec, error) {
	qid, ok := stringField(m, "qid")
	if !ok {
		return CreateEventSpec{}, fmt.Errorf("queue: create_event spec missing qid")
	}
	s := CreateEventSpec{
		Qid:               qid,
		CalendarID:        optionalString(m, "calendar_id"),
		Title:             optionalString(m, "title"),
		StartISO:          optionalString(m, "start_iso"),
		EndISO:            optionalString(m, "end_iso"),
		DescriptionMDPath: optionalString(m, "description_md_path"),
		Attendees:         stringSlice(m, "attendees"),
	}
	return s, nil
}

// CreatePostSpec carries enough to create one forum post deterministically.
type CreatePostSpec struct {
	Qid        string `json:"qid"`
	Title      string `json:"title"`
	BodyMDPath string `json:"body_md_path"`
}

func (s CreatePostSpec) Hash() (string, error) { return hashSpec(s) }

func (s CreatePostSpec) AsMap() map[string]any {
	return map[string]any{
		"qid":          s.Qid,
		"title":        s.Title,
		"body_md_path": s.BodyMDPath,
	}
}

func DecodeCreatePostSpec(m map[string]any) (CreatePostSpec, error) {
	qid, ok := stringField(m, "qid")
	if !ok {
		return CreatePostSpec{}, fmt.Errorf("queue: create_post spec missing qid")
	}
	return CreatePostSpec{
		Qid:        qid,
		Title:      optionalString(m, "title"),
		BodyMDPath: optionalString(m, "body_md_path"),
	}, nil
}

// ReplyPostSpec carries enough to reply to one forum post deterministically.
type ReplyPostSpec struct {
	Qid        string `json:"qid"`
	PostID     string `json:"post_id"`
	BodyMDPath string `json:"body_md_path"`
}

func (s ReplyPostSpec) Hash() (string, error) { return hashSpec(s) }

func (s ReplyPostSpec) AsMap() map[string]any {
	return map[string]any{
		"qid":          s.Qid,
		"post_id":      s.PostID,
		"body_md_path": s.BodyMDPath,
	}
}

func DecodeReplyPostSpec(m map[string]any) (ReplyPostSpec, error) {
	qid, ok := stringField(m, "qid")
	if !ok {
		return ReplyPostSpec{}, fmt.Errorf("queue: reply_post spec missing qid")
	}
	return ReplyPostSpec{
		Qid:        qid,
		PostID:     optionalString(m, "post_id"),
		BodyMDPath: optionalString(m, "body_md_path"),
	}, nil
}

func hashSpec(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return canonicalize.HashOf(raw)
}

func stringField(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func optionalString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func stringSlice(m map[string]any, key string) []string {
	if typed, ok := m[key].([]string); ok {
		return append(make([]string, 0, len(typed)), typed...)
	}
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
