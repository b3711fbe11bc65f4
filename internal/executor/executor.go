// Package executor orchestrates compile-then-run for one program against
// one input, and classifies the raw sandbox outcome into a typed result.
package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"gavel/internal/sandbox"
	"gavel/internal/sandbox/profile"
	appErr "gavel/pkg/errors"
)

// Verdict classifies one execution.
type Verdict string

const (
	VerdictSuccess Verdict = "SUCCESS"
	VerdictCE      Verdict = "CE"
	VerdictRE      Verdict = "RE"
	VerdictTLE     Verdict = "TLE"
	VerdictMLE     Verdict = "MLE"
)

// Result is the typed outcome of one execution.
type Result struct {
	Verdict         Verdict
	Output          string
	Error           string
	ExecutionTimeMs int64
	MemoryUsedKB    int64
}

// Executor runs one program against one input under resource limits.
type Executor interface {
	Execute(ctx context.Context, language, code, stdin string, timeLimitMs, memoryLimitMB int64) Result
}

const (
	stdinFileName = "input.txt"

	// compileMemoryMB bounds the compiler, independent of the (possibly
	// tiny) run-phase memory limit.
	compileMemoryMB = 256

	// oomExitThreshold: a non-zero exit with peak memory at or beyond
	// this share of the cap is attributed to the OOM killer.
	oomExitThreshold = 0.95
)

// SandboxExecutor implements Executor on the sandbox driver.
type SandboxExecutor struct {
	driver   sandbox.Driver
	registry *profile.Registry
	workRoot string
}

// New creates an executor writing per-execution directories under workRoot.
func New(driver sandbox.Driver, registry *profile.Registry, workRoot string) *SandboxExecutor {
	return &SandboxExecutor{driver: driver, registry: registry, workRoot: workRoot}
}

// Execute compiles (when the language requires it) and runs code against
// stdin. Judgement outcomes are values on the Result, never errors.
func (e *SandboxExecutor) Execute(ctx context.Context, language, code, stdin string, timeLimitMs, memoryLimitMB int64) Result {
	prof, ok := e.registry.Lookup(language)
	if !ok {
		return Result{Verdict: VerdictCE, Error: "Unsupported language"}
	}
	if timeLimitMs <= 0 {
		timeLimitMs = prof.DefaultTimeLimitMs
	}

	workDir, err := e.prepareWorkDir(prof, code, stdin)
	if err != nil {
		return Result{Verdict: VerdictRE, Error: err.Error()}
	}
	defer os.RemoveAll(workDir)

	if prof.Compiled() {
		if res, ok := e.compile(ctx, prof, workDir, memoryLimitMB); !ok {
			return res
		}
	}

	cmd, err := profile.BuildCommand(prof.RunCmd)
	if err != nil {
		return Result{Verdict: VerdictRE, Error: err.Error()}
	}
	raw := e.driver.Run(ctx, sandbox.RunSpec{
		Image:     prof.Image,
		Cmd:       cmd,
		WorkDir:   workDir,
		StdinFile: stdinFileName,
		Limits: sandbox.Limits{
			WallTimeMs: timeLimitMs,
			MemoryMB:   memoryLimitMB,
		},
	})
	return classify(raw, timeLimitMs, memoryLimitMB)
}

func (e *SandboxExecutor) prepareWorkDir(prof profile.LanguageProfile, code, stdin string) (string, error) {
	if err := os.MkdirAll(e.workRoot, 0755); err != nil {
		return "", appErr.Wrapf(err, appErr.JudgeSystemError, "create work root failed")
	}
	workDir, err := os.MkdirTemp(e.workRoot, "exec-")
	if err != nil {
		return "", appErr.Wrapf(err, appErr.JudgeSystemError, "create work dir failed")
	}
	if err := os.WriteFile(filepath.Join(workDir, prof.SourceFile), []byte(code), 0644); err != nil {
		os.RemoveAll(workDir)
		return "", appErr.Wrapf(err, appErr.JudgeSystemError, "write source failed")
	}
	if err := os.WriteFile(filepath.Join(workDir, stdinFileName), []byte(stdin), 0644); err != nil {
		os.RemoveAll(workDir)
		return "", appErr.Wrapf(err, appErr.JudgeSystemError, "write input failed")
	}
	return workDir, nil
}

// compile runs the compile command under the 30 s hard cap. The second
// return value is false when the caller must stop with the given result.
func (e *SandboxExecutor) compile(ctx context.Context, prof profile.LanguageProfile, workDir string, memoryLimitMB int64) (Result, bool) {
	cmd, err := profile.BuildCommand(prof.CompileCmd)
	if err != nil {
		return Result{Verdict: VerdictRE, Error: err.Error()}, false
	}
	compileMem := memoryLimitMB
	if compileMem < compileMemoryMB {
		compileMem = compileMemoryMB
	}
	raw := e.driver.Run(ctx, sandbox.RunSpec{
		Image:   prof.Image,
		Cmd:     cmd,
		WorkDir: workDir,
		Limits: sandbox.Limits{
			WallTimeMs: profile.CompileTimeoutMs,
			MemoryMB:   compileMem,
		},
	})
	if raw.TimedOut {
		return Result{Verdict: VerdictCE, Error: "compilation timed out"}, false
	}
	if raw.ExitCode != 0 {
		return Result{Verdict: VerdictCE, Error: raw.Stderr}, false
	}
	return Result{}, true
}

// classify maps a RawResult to a typed verdict per the limit contract.
func classify(raw sandbox.RawResult, timeLimitMs, memoryLimitMB int64) Result {
	memCapKB := memoryLimitMB * 1024

	if raw.TimedOut {
		return Result{
			Verdict:         VerdictTLE,
			ExecutionTimeMs: timeLimitMs,
			MemoryUsedKB:    raw.PeakRSSKB,
		}
	}

	if raw.ExitCode != 0 {
		// A non-zero exit with near-cap memory is the OOM killer's work.
		if raw.PeakRSSKB > 0 && float64(raw.PeakRSSKB) >= float64(memCapKB)*oomExitThreshold {
			return Result{
				Verdict:         VerdictMLE,
				ExecutionTimeMs: raw.WallMs,
				MemoryUsedKB:    raw.PeakRSSKB,
			}
		}
		return Result{
			Verdict:         VerdictRE,
			Error:           raw.Stderr,
			ExecutionTimeMs: raw.WallMs,
			MemoryUsedKB:    raw.PeakRSSKB,
		}
	}

	if raw.PeakRSSKB > memCapKB {
		return Result{
			Verdict:         VerdictMLE,
			ExecutionTimeMs: raw.WallMs,
			MemoryUsedKB:    raw.PeakRSSKB,
		}
	}

	return Result{
		Verdict:         VerdictSuccess,
		Output:          strings.TrimSpace(raw.Stdout),
		ExecutionTimeMs: raw.WallMs,
		MemoryUsedKB:    raw.PeakRSSKB,
	}
}
