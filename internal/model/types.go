// Package model defines the judge data model and the store access layer.
package model

import "time"

// Verdict labels a submission or a single test case outcome.
type Verdict string

const (
	VerdictPending Verdict = "PENDING"
	VerdictJudging Verdict = "JUDGING"
	VerdictAC      Verdict = "AC"
	VerdictWA      Verdict = "WA"
	VerdictTLE     Verdict = "TLE"
	VerdictMLE     Verdict = "MLE"
	VerdictRE      Verdict = "RE"
	VerdictCE      Verdict = "CE"
)

// Terminal reports whether the verdict is a final state.
func (v Verdict) Terminal() bool {
	switch v {
	case VerdictAC, VerdictWA, VerdictTLE, VerdictMLE, VerdictRE, VerdictCE:
		return true
	}
	return false
}

// worstOrder ranks failing verdicts; higher wins when aggregating.
var worstOrder = map[Verdict]int{
	VerdictWA:  1,
	VerdictRE:  2,
	VerdictMLE: 3,
	VerdictTLE: 4,
	VerdictCE:  5,
}

// WorseThan reports whether v outranks other in the aggregation order
// CE > TLE > MLE > RE > WA.
func (v Verdict) WorseThan(other Verdict) bool {
	return worstOrder[v] > worstOrder[other]
}

// TestCase is one input/expected pair of a problem.
// Hidden is carried for the API surface; the judge ignores it.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Hidden         bool   `json:"hidden,omitempty"`
}

// TestCaseResult is one per-test entry of a submission's judge output.
type TestCaseResult struct {
	TestCase        int     `json:"test_case"`
	Verdict         Verdict `json:"verdict"`
	ExecutionTimeMs int64   `json:"execution_time"`
	MemoryUsedKB    int64   `json:"memory_used"`
	Error           string  `json:"error,omitempty"`
	CheckerMessage  string  `json:"checker_message,omitempty"`
}

// Submission is the persistent submission record.
type Submission struct {
	ID              string           `json:"id"`
	ProblemID       string           `json:"problem_id"`
	UserID          string           `json:"user_id"`
	Language        string           `json:"language"`
	Code            string           `json:"code"`
	Verdict         Verdict          `json:"verdict"`
	ExecutionTimeMs int64            `json:"execution_time"`
	MemoryUsedKB    int64            `json:"memory_used"`
	TestCasesPassed int              `json:"test_cases_passed"`
	TotalTestCases  int              `json:"total_test_cases"`
	JudgeOutput     []TestCaseResult `json:"judge_output"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	JudgedAt        *time.Time       `json:"judged_at,omitempty"`
}

// Problem is the judge-facing view of a problem.
// TestCases are inline by default; TestDataKey points at an external
// data pack in object storage when the case set is too large for a row.
type Problem struct {
	ID              string     `json:"id"`
	TimeLimitMs     int64      `json:"time_limit"`
	MemoryLimitMB   int64      `json:"memory_limit"`
	CheckerCode     string     `json:"checker_code,omitempty"`
	CheckerLanguage string     `json:"checker_language,omitempty"`
	TestCases       []TestCase `json:"test_cases"`
	TestDataKey     string     `json:"test_data_key,omitempty"`
	TestDataHash    string     `json:"test_data_hash,omitempty"`
}

// HasChecker reports whether the problem supplies a custom checker.
func (p *Problem) HasChecker() bool {
	return p.CheckerCode != "" && p.CheckerLanguage != ""
}

// Job is the transient queue message enqueued by the API.
type Job struct {
	SubmissionID string `json:"submission_id"`
	ProblemID    string `json:"problem_id"`
	Language     string `json:"language"`
	Code         string `json:"code"`
}

// FinalResult is what the pipeline persists when judging finishes.
type FinalResult struct {
	Verdict         Verdict
	ExecutionTimeMs int64
	MemoryUsedKB    int64
	TestCasesPassed int
	TotalTestCases  int
	JudgeOutput     []TestCaseResult
	JudgedAt        time.Time
}
