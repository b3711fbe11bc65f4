// Package judge implements the judging pipeline: claim a submission,
// run it over the problem's test cases, aggregate a final verdict and
// persist it.
package judge

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"gavel/internal/datapack"
	"gavel/internal/executor"
	"gavel/internal/model"
	appErr "gavel/pkg/errors"
	"gavel/pkg/logger"
)

// Processor judges one submission end to end.
type Processor struct {
	submissions model.SubmissionsModel
	problems    model.ProblemsModel
	exec        executor.Executor
	checker     *CheckerRunner
	// packs is nil when external test data is not configured.
	packs *datapack.Cache
}

// NewProcessor wires the pipeline. packs may be nil.
func NewProcessor(submissions model.SubmissionsModel, problems model.ProblemsModel, exec executor.Executor, packs *datapack.Cache) *Processor {
	return &Processor{
		submissions: submissions,
		problems:    problems,
		exec:        exec,
		checker:     NewCheckerRunner(exec),
		packs:       packs,
	}
}

// Process judges the job's submission. A non-nil error means the job
// failed before or during persistence; judgement outcomes themselves
// are never errors.
func (p *Processor) Process(ctx context.Context, job model.Job) error {
	ctx = logger.WithSubmissionID(ctx, job.SubmissionID)

	claimed, err := p.submissions.MarkJudging(ctx, job.SubmissionID)
	if err != nil {
		return err
	}
	if !claimed {
		// Redelivered job for an already-judged submission.
		logger.Info(ctx, "submission already judged, skipping")
		return nil
	}

	logger.Info(ctx, "judging submission",
		zap.String("problem_id", job.ProblemID),
		zap.String("language", job.Language))

	problem, err := p.problems.FindOne(ctx, job.ProblemID)
	if err != nil {
		if appErr.Is(err, appErr.ProblemNotFound) {
			return p.finish(ctx, job.SubmissionID, systemFailure("problem not found"))
		}
		return err
	}

	cases, err := p.loadCases(ctx, problem)
	if err != nil {
		logger.Error(ctx, "load test cases failed", zap.Error(err))
		return p.finish(ctx, job.SubmissionID, systemFailure("test data unavailable"))
	}

	final := p.judge(ctx, job, problem, cases)
	return p.finish(ctx, job.SubmissionID, final)
}

// loadCases resolves the problem's test cases, following the external
// data pack pointer when set.
func (p *Processor) loadCases(ctx context.Context, problem *model.Problem) ([]model.TestCase, error) {
	if problem.TestDataKey != "" {
		if p.packs == nil {
			return nil, appErr.New(appErr.DataPackError).WithMessage("external test data is not configured")
		}
		return p.packs.Get(ctx, problem.TestDataKey, problem.TestDataHash)
	}
	if len(problem.TestCases) == 0 {
		return nil, appErr.New(appErr.DataPackError).WithMessage("problem has no test cases")
	}
	return problem.TestCases, nil
}

// judge runs every test case in order, stopping at the first failure.
func (p *Processor) judge(ctx context.Context, job model.Job, problem *model.Problem, cases []model.TestCase) model.FinalResult {
	final := model.FinalResult{
		Verdict:        model.VerdictAC,
		TotalTestCases: len(cases),
		JudgedAt:       time.Now().UTC(),
	}

	for i, tc := range cases {
		res := p.runCase(ctx, job, problem, tc, i+1)
		final.JudgeOutput = append(final.JudgeOutput, res)

		if res.ExecutionTimeMs > final.ExecutionTimeMs {
			final.ExecutionTimeMs = res.ExecutionTimeMs
		}
		if res.MemoryUsedKB > final.MemoryUsedKB {
			final.MemoryUsedKB = res.MemoryUsedKB
		}

		if res.Verdict == model.VerdictAC {
			final.TestCasesPassed++
			continue
		}
		if final.Verdict == model.VerdictAC || res.Verdict.WorseThan(final.Verdict) {
			final.Verdict = res.Verdict
		}
		// First failure decides; later cases cannot improve the verdict.
		break
	}

	if final.TestCasesPassed == final.TotalTestCases {
		final.Verdict = model.VerdictAC
	}
	return final
}

// runCase executes the submission against one test case and scores it.
func (p *Processor) runCase(ctx context.Context, job model.Job, problem *model.Problem, tc model.TestCase, number int) model.TestCaseResult {
	res := p.exec.Execute(ctx, job.Language, job.Code, tc.Input, problem.TimeLimitMs, problem.MemoryLimitMB)

	out := model.TestCaseResult{
		TestCase:        number,
		ExecutionTimeMs: res.ExecutionTimeMs,
		MemoryUsedKB:    res.MemoryUsedKB,
	}

	if res.Verdict != executor.VerdictSuccess {
		out.Verdict = mapVerdict(res.Verdict)
		out.Error = res.Error
		return out
	}

	if problem.HasChecker() {
		ok, message := p.checker.Check(ctx, problem.CheckerLanguage, problem.CheckerCode, tc.Input, tc.ExpectedOutput, res.Output)
		out.CheckerMessage = message
		if ok {
			out.Verdict = model.VerdictAC
		} else {
			out.Verdict = model.VerdictWA
		}
		return out
	}

	if res.Output == strings.TrimSpace(tc.ExpectedOutput) {
		out.Verdict = model.VerdictAC
	} else {
		out.Verdict = model.VerdictWA
	}
	return out
}

func (p *Processor) finish(ctx context.Context, submissionID string, final model.FinalResult) error {
	if err := p.submissions.FinishJudging(ctx, submissionID, final); err != nil {
		return err
	}
	logger.Info(ctx, "submission judged",
		zap.String("verdict", string(final.Verdict)),
		zap.Int("passed", final.TestCasesPassed),
		zap.Int("total", final.TotalTestCases),
		zap.Int64("execution_time_ms", final.ExecutionTimeMs),
		zap.Int64("memory_used_kb", final.MemoryUsedKB))
	return nil
}

// systemFailure finalizes a submission that could not be judged at all.
func systemFailure(message string) model.FinalResult {
	return model.FinalResult{
		Verdict:  model.VerdictRE,
		JudgedAt: time.Now().UTC(),
		JudgeOutput: []model.TestCaseResult{{
			TestCase: 1,
			Verdict:  model.VerdictRE,
			Error:    message,
		}},
	}
}

func mapVerdict(v executor.Verdict) model.Verdict {
	switch v {
	case executor.VerdictCE:
		return model.VerdictCE
	case executor.VerdictTLE:
		return model.VerdictTLE
	case executor.VerdictMLE:
		return model.VerdictMLE
	default:
		return model.VerdictRE
	}
}
