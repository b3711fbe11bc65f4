package judge

import (
	"context"
	"encoding/json"
	"strings"

	"gavel/internal/executor"
)

// Checker limits are fixed: a checker is trusted problem-setter code,
// but it still runs sandboxed with its own budget.
const (
	checkerTimeLimitMs   = 5_000
	checkerMemoryLimitMB = 64
)

// checkerInput is the JSON document fed to a custom checker's stdin.
type checkerInput struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// CheckerRunner evaluates one output with a problem's custom checker.
type CheckerRunner struct {
	exec executor.Executor
}

// NewCheckerRunner returns a runner executing checkers on exec.
func NewCheckerRunner(exec executor.Executor) *CheckerRunner {
	return &CheckerRunner{exec: exec}
}

// Check runs checkerCode against the (input, expected, actual) triple.
// The decision is binary: the checker accepts or it does not. Any
// checker malfunction counts as a rejection with a diagnostic message.
func (r *CheckerRunner) Check(ctx context.Context, checkerLanguage, checkerCode, input, expected, actual string) (bool, string) {
	payload, err := json.Marshal(checkerInput{
		Input:    input,
		Expected: expected,
		Actual:   actual,
	})
	if err != nil {
		return false, "Checker execution failed"
	}

	res := r.exec.Execute(ctx, checkerLanguage, checkerCode, string(payload), checkerTimeLimitMs, checkerMemoryLimitMB)
	if res.Verdict != executor.VerdictSuccess {
		return false, "Checker execution failed"
	}
	return accepted(res.Output), res.Output
}

// accepted reads the checker's decision: the first whitespace-separated
// token of stdout, case-insensitively equal to ACCEPT.
func accepted(output string) bool {
	fields := strings.Fields(output)
	if len(fields) == 0 {
		return false
	}
	return strings.EqualFold(fields[0], "ACCEPT")
}
