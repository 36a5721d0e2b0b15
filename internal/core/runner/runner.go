// Package runner executes installation scripts with the configured shell and
// checks their syntax before they are stored.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrInterpreterMissing is returned when the shell cannot be found on PATH.
var ErrInterpreterMissing = errors.New("interpreter not found")

// Result describes a finished script run.
type Result struct {
	ExitCode int
	Error    error
}

// Runner starts scripts as child processes with inherited stdio.
type Runner struct {
	Shell    string
	LookPath func(file string) (string, error)
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
}

// New returns a Runner wired to the process's standard streams.
func New(shell string) *Runner {
	return &Runner{
		Shell:    shell,
		LookPath: exec.LookPath,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// Run executes "<shell> <script>" with the script's directory as working
// directory and waits for it. A non-zero exit is reported through ExitCode
// with a nil Error; Error is set only when the script could not be run.
func (r *Runner) Run(ctx context.Context, scriptPath string) *Result {
	shell, err := r.LookPath(r.Shell)
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("%w: %s (please install %s)", ErrInterpreterMissing, r.Shell, r.Shell)}
	}

	script, err := filepath.Abs(scriptPath)
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("resolving script path: %w", err)}
	}

	cmd := exec.CommandContext(ctx, shell, script)
	cmd.Dir = filepath.Dir(script)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			return &Result{ExitCode: exitErr.ExitCode()}
		}
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to execute %s: %w", script, err)}
	}
	return &Result{ExitCode: 0}
}

// Lint parses content as a bash script and returns the first syntax error.
func Lint(name string, content string) error {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	if _, err := parser.Parse(strings.NewReader(content), name); err != nil {
		return fmt.Errorf("script syntax error: %w", err)
	}
	return nil
}
