package policy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/companion/pkg/queue"
)

func writeTempBody(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "body.md")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	return path
}

// S1 from spec.md §8.
func TestAllowSendEmail_S1_SelfEmailApproved(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	body := writeTempBody(t)
	spec := queue.SendEmailSpec{To: "me@example.com", Subject: "Hi", BodyMDPath: body}
	p := Params{Policy: "conservative", SelfEmail: "ME@Example.com "}

	allow, err := e.AllowSendEmail(spec, p)
	require.NoError(t, err)
	assert.True(t, allow)
}

// S2 from spec.md §8.
func TestAllowSendEmail_S2_ThirdPartyRejected(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	body := writeTempBody(t)
	spec := queue.SendEmailSpec{To: "other@example.com", Subject: "Hi", BodyMDPath: body}
	p := Params{Policy: "conservative", SelfEmail: "me@example.com"}

	allow, err := e.AllowSendEmail(spec, p)
	require.NoError(t, err)
	assert.False(t, allow)
}

// An empty spec.To with an empty SelfEmail must not vacuously match: both
// sides being "" is not a self-send, it's an unparsed reply-to address
// (pkg/controllers/messages.go leaves spec.To empty on header-parse
// failure) combined with an unconfigured operator email.
func TestAllowSendEmail_EmptyToAndEmptySelfEmailRejected(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	body := writeTempBody(t)
	spec := queue.SendEmailSpec{To: "", Subject: "Hi", BodyMDPath: body}
	p := Params{Policy: "conservative", SelfEmail: ""}

	allow, err := e.AllowSendEmail(spec, p)
	require.NoError(t, err)
	assert.False(t, allow)
}

func TestAllowSendEmail_EmptyToRejectedEvenWithSelfEmailConfigured(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	body := writeTempBody(t)
	spec := queue.SendEmailSpec{To: "", Subject: "Hi", BodyMDPath: body}
	p := Params{Policy: "conservative", SelfEmail: "me@example.com"}

	allow, err := e.AllowSendEmail(spec, p)
	require.NoError(t, err)
	assert.False(t, allow)
}

func TestAllowSendEmail_RejectsNonConservativePolicy(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	body := writeTempBody(t)
	spec := queue.SendEmailSpec{To: "me@example.com", Subject: "Hi", BodyMDPath: body}
	p := Params{Policy: "permissive", SelfEmail: "me@example.com"}

	allow, err := e.AllowSendEmail(spec, p)
	require.NoError(t, err)
	assert.False(t, allow)
}

func TestAllowSendEmail_RejectsMissingBodyFile(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	spec := queue.SendEmailSpec{To: "me@example.com", Subject: "Hi", BodyMDPath: "/does/not/exist.md"}
	p := Params{Policy: "conservative", SelfEmail: "me@example.com"}

	allow, err := e.AllowSendEmail(spec, p)
	require.NoError(t, err)
	assert.False(t, allow)
}

func TestAllowSendEmail_RejectsLongSubject(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	body := writeTempBody(t)
	longSubject := make([]byte, 201)
	for i := range longSubject {
		longSubject[i] = 'x'
	}
	spec := queue.SendEmailSpec{To: "me@example.com", Subject: string(longSubject), BodyMDPath: body}
	p := Params{Policy: "conservative", SelfEmail: "me@example.com"}

	allow, err := e.AllowSendEmail(spec, p)
	require.NoError(t, err)
	assert.False(t, allow)
}

func defaultEventParams() Params {
	return Params{
		Policy:              "conservative",
		AutoCalendarID:      "primary",
		EventWindowDays:     7,
		EventMaxDurationMin: 120,
		EventStartHour:      0,
		EventEndHour:        23,
	}
}

func TestAllowCreateEvent_ApprovesWithinWindow(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(2 * time.Hour)
	end := start.Add(30 * time.Minute)

	spec := queue.CreateEventSpec{
		CalendarID: "primary", Title: "Sync",
		StartISO: start.Format(time.RFC3339), EndISO: end.Format(time.RFC3339),
	}

	allow, err := e.AllowCreateEvent(spec, defaultEventParams(), now)
	require.NoError(t, err)
	assert.True(t, allow)
}

// S3 from spec.md §8: event 10 days out with the default 7-day window is
// rejected.
func TestAllowCreateEvent_S3_OutsideWindowRejected(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(10 * 24 * time.Hour)
	end := start.Add(60 * time.Minute)

	spec := queue.CreateEventSpec{
		CalendarID: "primary", Title: "Sync",
		StartISO: start.Format(time.RFC3339), EndISO: end.Format(time.RFC3339),
	}
	p := defaultEventParams()
	p.EventWindowDays = 7

	allow, err := e.AllowCreateEvent(spec, p, now)
	require.NoError(t, err)
	assert.False(t, allow)
}

func TestAllowCreateEvent_RejectsNonEmptyAttendees(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(2 * time.Hour)
	end := start.Add(30 * time.Minute)

	spec := queue.CreateEventSpec{
		CalendarID: "primary", Title: "Sync", Attendees: []string{"a@b.com"},
		StartISO: start.Format(time.RFC3339), EndISO: end.Format(time.RFC3339),
	}

	allow, err := e.AllowCreateEvent(spec, defaultEventParams(), now)
	require.NoError(t, err)
	assert.False(t, allow)
}

func TestAllowCreateEvent_RejectsPastStart(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(-2 * time.Hour)
	end := start.Add(30 * time.Minute)

	spec := queue.CreateEventSpec{
		CalendarID: "primary", Title: "Sync",
		StartISO: start.Format(time.RFC3339), EndISO: end.Format(time.RFC3339),
	}

	allow, err := e.AllowCreateEvent(spec, defaultEventParams(), now)
	require.NoError(t, err)
	assert.False(t, allow)
}

func TestAllowCreateEvent_TrailingZToleratedInISO(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(2 * time.Hour).UTC()
	end := start.Add(30 * time.Minute)

	spec := queue.CreateEventSpec{
		CalendarID: "primary", Title: "Sync",
		StartISO: start.Format("2006-01-02T15:04:05Z"),
		EndISO:   end.Format("2006-01-02T15:04:05Z"),
	}

	allow, err := e.AllowCreateEvent(spec, defaultEventParams(), now)
	require.NoError(t, err)
	assert.True(t, allow)
}
