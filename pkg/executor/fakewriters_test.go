package executor

import (
	"context"
	"fmt"
)

type fakeEmailWriter struct {
	calls int
	err   error
}

func (f *fakeEmailWriter) SendEmail(ctx context.Context, to, subject, body string) error {
	f.calls++
	return f.err
}

type fakeCalendarWriter struct {
	calls int
	err   error
}

func (f *fakeCalendarWriter) CreateEvent(ctx context.Context, calendarID, title, startISO, endISO, description string, attendees []string) error {
	f.calls++
	return f.err
}

type fakeForumWriter struct {
	postCalls  int
	replyCalls int
	err        error
}

func (f *fakeForumWriter) CreatePost(ctx context.Context, title, body string) error {
	f.postCalls++
	return f.err
}

func (f *fakeForumWriter) ReplyPost(ctx context.Context, postID, body string) error {
	f.replyCalls++
	return f.err
}

var errWriterBoom = fmt.Errorf("writer: boom")
