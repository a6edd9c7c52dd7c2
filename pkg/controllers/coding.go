package controllers

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Mindburn-Labs/companion/pkg/types"
)

// testRunTimeout bounds how long a single run_tests invocation may run
// before it is killed and reported as a failure.
const testRunTimeout = 20 * time.Minute

// Coding runs a repo's test suite as a subprocess and records its stdout
// and stderr as artifacts. It never mutates a queue: run_tests has no
// external effect beyond the local filesystem it already has access to.
type Coding struct {
	ArtifactsDir string
	Now          func() time.Time
}

func (c Coding) Execute(ctx context.Context, intent types.Intent) types.ExecutionResult {
	dir := filepath.Join(c.ArtifactsDir, "coding")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}
	if intent.Type != "run_tests" {
		return skip("unsupported_intent")
	}

	repo := payloadString(intent.Payload, "repo")
	if repo == "" {
		repo = "."
	}
	suite := payloadString(intent.Payload, "suite")
	if suite == "" {
		suite = "go test ./..."
	}
	args := strings.Fields(suite)

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	stamp := now().UTC().Format("20060102_150405")
	outPath := filepath.Join(dir, "tests_"+stamp+".out.txt")
	errPath := filepath.Join(dir, "tests_"+stamp+".err.txt")

	runCtx, cancel := context.WithTimeout(ctx, testRunTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	cmd.Dir = repo
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if err := os.WriteFile(outPath, stdout.Bytes(), 0o644); err != nil {
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}

	if runErr != nil {
		if _, isExit := runErr.(*exec.ExitError); !isExit {
			if err := os.WriteFile(errPath, []byte(runErr.Error()), 0o644); err != nil {
				return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
			}
			return types.ExecutionResult{Status: types.ExecutionFail, Artifacts: []string{errPath}, Note: "runner_error"}
		}
	}
	if err := os.WriteFile(errPath, stderr.Bytes(), 0o644); err != nil {
		return types.ExecutionResult{Status: types.ExecutionFail, Note: err.Error()}
	}

	status := types.ExecutionOK
	if cmd.ProcessState != nil && cmd.ProcessState.ExitCode() != 0 {
		status = types.ExecutionFail
	}
	rc := 0
	if cmd.ProcessState != nil {
		rc = cmd.ProcessState.ExitCode()
	}
	return types.ExecutionResult{
		Status:    status,
		Artifacts: []string{outPath, errPath},
		Note:      "rc=" + strconv.Itoa(rc),
	}
}
