package judge

import (
	"context"
	"encoding/json"
	"testing"

	"gavel/internal/executor"
)

// scriptedExecutor returns canned results and records every call.
type scriptedExecutor struct {
	results []executor.Result
	calls   []executorCall
}

type executorCall struct {
	language string
	code     string
	stdin    string
	timeMs   int64
	memMB    int64
}

func (s *scriptedExecutor) Execute(ctx context.Context, language, code, stdin string, timeLimitMs, memoryLimitMB int64) executor.Result {
	s.calls = append(s.calls, executorCall{language, code, stdin, timeLimitMs, memoryLimitMB})
	idx := len(s.calls) - 1
	if idx < len(s.results) {
		return s.results[idx]
	}
	return executor.Result{Verdict: executor.VerdictSuccess}
}

func TestCheckerAcceptToken(t *testing.T) {
	cases := []struct {
		output string
		want   bool
	}{
		{"ACCEPT", true},
		{"accept", true},
		{"Accept extra words here", true},
		{"  \n ACCEPT\n", true},
		{"REJECT", false},
		{"ACCEPTED", false},
		{"", false},
		{"   ", false},
		{"wrong ACCEPT", false},
	}
	for _, tc := range cases {
		exec := &scriptedExecutor{results: []executor.Result{
			{Verdict: executor.VerdictSuccess, Output: tc.output},
		}}
		runner := NewCheckerRunner(exec)
		ok, _ := runner.Check(context.Background(), "python", "code", "in", "exp", "act")
		if ok != tc.want {
			t.Errorf("output %q: accepted = %v, want %v", tc.output, ok, tc.want)
		}
	}
}

func TestCheckerPayload(t *testing.T) {
	exec := &scriptedExecutor{results: []executor.Result{
		{Verdict: executor.VerdictSuccess, Output: "ACCEPT"},
	}}
	runner := NewCheckerRunner(exec)
	runner.Check(context.Background(), "python", "checker code", "5 3", "8", "8.0")

	if len(exec.calls) != 1 {
		t.Fatalf("executor calls = %d, want 1", len(exec.calls))
	}
	call := exec.calls[0]
	if call.language != "python" || call.code != "checker code" {
		t.Errorf("checker ran with wrong program: %+v", call)
	}
	if call.timeMs != checkerTimeLimitMs || call.memMB != checkerMemoryLimitMB {
		t.Errorf("checker limits = (%d, %d), want (%d, %d)",
			call.timeMs, call.memMB, checkerTimeLimitMs, checkerMemoryLimitMB)
	}

	var payload checkerInput
	if err := json.Unmarshal([]byte(call.stdin), &payload); err != nil {
		t.Fatalf("checker stdin is not JSON: %v", err)
	}
	if payload.Input != "5 3" || payload.Expected != "8" || payload.Actual != "8.0" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestCheckerExecutionFailure(t *testing.T) {
	for _, verdict := range []executor.Verdict{executor.VerdictRE, executor.VerdictTLE, executor.VerdictMLE, executor.VerdictCE} {
		exec := &scriptedExecutor{results: []executor.Result{{Verdict: verdict}}}
		runner := NewCheckerRunner(exec)
		ok, msg := runner.Check(context.Background(), "python", "bad checker", "", "", "")
		if ok {
			t.Errorf("verdict %s: checker failure must reject", verdict)
		}
		if msg != "Checker execution failed" {
			t.Errorf("verdict %s: message = %q", verdict, msg)
		}
	}
}

func TestCheckerMessageIsStdout(t *testing.T) {
	exec := &scriptedExecutor{results: []executor.Result{
		{Verdict: executor.VerdictSuccess, Output: "REJECT expected 8 got 9"},
	}}
	runner := NewCheckerRunner(exec)
	ok, msg := runner.Check(context.Background(), "python", "code", "", "8", "9")
	if ok {
		t.Error("REJECT output must not accept")
	}
	if msg != "REJECT expected 8 got 9" {
		t.Errorf("message = %q", msg)
	}
}
