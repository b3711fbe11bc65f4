// Package sandbox runs one untrusted program inside an ephemeral,
// resource- and privilege-capped container.
package sandbox

import "context"

// Output caps applied inside the driver. Stdout covers the largest
// tolerated program output; stderr only needs to carry diagnostics.
const (
	MaxStdoutBytes = 1 << 20
	MaxStderrBytes = 64 << 10
)

// Limits bound one sandboxed invocation. All times are milliseconds;
// no unit conversion happens below this layer.
type Limits struct {
	WallTimeMs int64
	MemoryMB   int64
}

// RunSpec describes one sandboxed invocation.
type RunSpec struct {
	// Image is the container image to run in.
	Image string
	// Cmd is the argv to execute.
	Cmd []string
	// WorkDir is the host directory bound read-write at the container
	// working directory. Source, stdin file and artifacts live here.
	WorkDir string
	// StdinFile names a file inside WorkDir fed to the program's stdin.
	// Empty means no stdin.
	StdinFile string
	Limits    Limits
}

// RawResult is the low-level outcome of one invocation.
// Infrastructure failures are encoded as ExitCode == -1 with a
// non-empty Stderr; callers map that to a runtime error verdict.
type RawResult struct {
	ExitCode  int64
	Stdout    string
	Stderr    string
	WallMs    int64
	PeakRSSKB int64
	TimedOut  bool
}

// Driver launches sandboxed invocations.
type Driver interface {
	Run(ctx context.Context, spec RunSpec) RawResult
}
