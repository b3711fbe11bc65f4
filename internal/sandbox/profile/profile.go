// Package profile defines language profiles used by the executor.
package profile

import (
	"github.com/google/shlex"

	appErr "gavel/pkg/errors"
)

// CompileTimeoutMs caps every compile run regardless of the test time limit.
const CompileTimeoutMs = 30_000

// LanguageProfile defines how to compile and run one language.
type LanguageProfile struct {
	ID         string
	Image      string
	SourceFile string
	// CompileCmd is empty for interpreted languages.
	CompileCmd string
	RunCmd     string
	// DefaultTimeLimitMs applies when the problem does not set one.
	DefaultTimeLimitMs int64
}

// Compiled reports whether the language has a compile step.
func (p LanguageProfile) Compiled() bool {
	return p.CompileCmd != ""
}

// Registry maps language tags to profiles.
type Registry struct {
	profiles map[string]LanguageProfile
}

// NewRegistry builds a registry from the given profiles.
func NewRegistry(profiles ...LanguageProfile) *Registry {
	m := make(map[string]LanguageProfile, len(profiles))
	for _, p := range profiles {
		m[p.ID] = p
	}
	return &Registry{profiles: m}
}

// DefaultRegistry returns the built-in language set.
func DefaultRegistry() *Registry {
	return NewRegistry(
		LanguageProfile{
			ID:                 "c",
			Image:              "gcc:11-alpine",
			SourceFile:         "solution.c",
			CompileCmd:         "gcc -O2 -std=c11 -o solution solution.c",
			RunCmd:             "./solution",
			DefaultTimeLimitMs: 10_000,
		},
		LanguageProfile{
			ID:                 "python",
			Image:              "python:3.11-alpine",
			SourceFile:         "solution.py",
			RunCmd:             "python3 solution.py",
			DefaultTimeLimitMs: 10_000,
		},
		LanguageProfile{
			ID:                 "javascript",
			Image:              "node:20-alpine",
			SourceFile:         "solution.js",
			RunCmd:             "node solution.js",
			DefaultTimeLimitMs: 10_000,
		},
	)
}

// Lookup resolves a language tag.
func (r *Registry) Lookup(id string) (LanguageProfile, bool) {
	p, ok := r.profiles[id]
	return p, ok
}

// BuildCommand splits a profile command into argv. Commands are trusted
// operator configuration, but shell word splitting still applies.
func BuildCommand(cmd string) ([]string, error) {
	if cmd == "" {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command is required")
	}
	fields, err := shlex.Split(cmd)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InvalidParams, "parse command failed")
	}
	if len(fields) == 0 {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command is empty")
	}
	return fields, nil
}
