// Package policy implements the auto-approve predicates of spec.md §4.8.
// Each predicate is split into two layers: Go computes the I/O- and
// timezone-dependent features (file existence, ISO-8601 parsing, local
// hour bounds), then a compiled CEL expression evaluates the conservative
// policy's boolean conjunction over that flat feature map. This mirrors
// the teacher's CELPolicyEvaluator (pkg/governance/policy_evaluator_cel.go):
// same compile-once/cache/evaluate shape, applied to this domain's rules
// instead of module-activation rules.
package policy

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/Mindburn-Labs/companion/pkg/queue"
)

// sendEmailExpr encodes: policy=="conservative" AND recipient==self_email
// (case-insensitive, trimmed) AND subject non-empty and <=200 chars AND
// the body file exists and is readable.
const sendEmailExpr = `
	policy == "conservative" &&
	to_matches_self &&
	subject_len > 0 && subject_len <= 200 &&
	body_exists
`

// createEventExpr encodes the create-event predicate from spec.md §4.8.
const createEventExpr = `
	policy == "conservative" &&
	calendar_matches &&
	title_len > 0 &&
	attendee_count == 0 &&
	start_valid && end_valid &&
	start_in_future &&
	start_within_window &&
	duration_positive && duration_within_max &&
	start_hour_in_range && end_hour_in_range
`

// Params bundles the configured thresholds a predicate needs, sourced
// from config.Config.
type Params struct {
	Policy              string
	SelfEmail           string
	AutoCalendarID      string
	EventWindowDays     int
	EventMaxDurationMin int
	EventStartHour      int
	EventEndHour        int
}

// Engine compiles and caches the CEL programs for the two auto-approvable
// spec kinds.
type Engine struct {
	env *cel.Env

	mu          sync.Mutex
	sendProg    cel.Program
	eventProg   cel.Program
}

// New builds a CEL environment that declares each feature as its own
// top-level variable, so the expressions refer to features by name, and
// compiles both default programs.
func New() (*Engine, error) {
	env, err := cel.NewEnv(cel.Variable("policy", cel.StringType),
		cel.Variable("to_matches_self", cel.BoolType),
		cel.Variable("subject_len", cel.IntType),
		cel.Variable("body_exists", cel.BoolType),
		cel.Variable("calendar_matches", cel.BoolType),
		cel.Variable("title_len", cel.IntType),
		cel.Variable("attendee_count", cel.IntType),
		cel.Variable("start_valid", cel.BoolType),
		cel.Variable("end_valid", cel.BoolType),
		cel.Variable("start_in_future", cel.BoolType),
		cel.Variable("start_within_window", cel.BoolType),
		cel.Variable("duration_positive", cel.BoolType),
		cel.Variable("duration_within_max", cel.BoolType),
		cel.Variable("start_hour_in_range", cel.BoolType),
		cel.Variable("end_hour_in_range", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("policy: create CEL env: %w", err)
	}

	e := &Engine{env: env}
	if e.sendProg, err = e.compile(sendEmailExpr); err != nil {
		return nil, fmt.Errorf("policy: compile send_email expr: %w", err)
	}
	if e.eventProg, err = e.compile(createEventExpr); err != nil {
		return nil, fmt.Errorf("policy: compile create_event expr: %w", err)
	}
	return e, nil
}

func (e *Engine) compile(expr string) (cel.Program, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	return e.env.Program(ast)
}

func (e *Engine) eval(prg cel.Program, input map[string]any) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out, _, err := prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("policy: eval: %w", err)
	}
	val, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("policy: result not bool")
	}
	return val, nil
}

// AllowSendEmail reports whether spec qualifies for auto-approval.
func (e *Engine) AllowSendEmail(spec queue.SendEmailSpec, p Params) (bool, error) {
	body := spec.BodyMDPath != "" && fileReadable(spec.BodyMDPath)
	to := strings.TrimSpace(spec.To)
	self := strings.TrimSpace(p.SelfEmail)
	toMatchesSelf := to != "" && self != "" && strings.EqualFold(to, self)
	input := map[string]any{
		"policy":          p.Policy,
		"to_matches_self": toMatchesSelf,
		"subject_len":     int64(len(spec.Subject)),
		"body_exists":     body,
	}
	return e.eval(e.sendProg, input)
}

// AllowCreateEvent reports whether spec qualifies for auto-approval.
func (e *Engine) AllowCreateEvent(spec queue.CreateEventSpec, p Params, now time.Time) (bool, error) {
	start, startOK := parseISO8601(spec.StartISO)
	end, endOK := parseISO8601(spec.EndISO)

	duration := time.Duration(0)
	durationPositive := false
	durationWithinMax := false
	if startOK && endOK {
		duration = end.Sub(start)
		durationPositive = duration > 0
		durationWithinMax = duration > 0 && duration <= time.Duration(p.EventMaxDurationMin)*time.Minute
	}

	startInFuture := startOK && start.After(now)
	startWithinWindow := startOK && start.Before(now.Add(time.Duration(p.EventWindowDays)*24*time.Hour))

	startLocal, endLocal := start.Local(), end.Local()
	startHourInRange := startOK && hourInRange(startLocal.Hour(), p.EventStartHour, p.EventEndHour)
	endHourInRange := endOK && hourInRange(endLocal.Hour(), p.EventStartHour, p.EventEndHour)

	input := map[string]any{
		"policy":              p.Policy,
		"calendar_matches":    spec.CalendarID == p.AutoCalendarID,
		"title_len":           int64(len(spec.Title)),
		"attendee_count":      int64(len(spec.Attendees)),
		"start_valid":         startOK,
		"end_valid":           endOK,
		"start_in_future":     startInFuture,
		"start_within_window": startWithinWindow,
		"duration_positive":   durationPositive,
		"duration_within_max": durationWithinMax,
		"start_hour_in_range": startHourInRange,
		"end_hour_in_range":   endHourInRange,
	}
	return e.eval(e.eventProg, input)
}

// parseISO8601 parses an ISO-8601 timestamp, tolerating a trailing "Z"
// per spec.md §9 ("replace with +00:00").
func parseISO8601(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	normalized := s
	if strings.HasSuffix(normalized, "Z") {
		normalized = strings.TrimSuffix(normalized, "Z") + "+00:00"
	}
	t, err := time.Parse(time.RFC3339, normalized)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func hourInRange(hour, start, end int) bool {
	return hour >= start && hour <= end
}

func fileReadable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
