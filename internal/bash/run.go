package bash

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// LineFunc receives script output one line at a time
type LineFunc func(line string)

// ScriptError is returned when a script exits with a non-zero status
type ScriptError struct {
	ExitCode int
}

// Error implements the error interface
func (e *ScriptError) Error() string {
	return fmt.Sprintf("script exited with status %d", e.ExitCode)
}

// WrapScript prepends variable bindings to a script body and runs it inside
// a function in strict mode
func WrapScript(vars *Variables, script string) (string, error) {
	bindings, err := PutVariables(vars)
	if err != nil {
		return "", err
	}

	return strings.Join([]string{
		"set -euo pipefail",
		bindings,
		"script() {",
		script,
		"}",
		"script",
	}, "\n"), nil
}

// HostRunner runs scripts with the host's Bash
type HostRunner struct {
	// Shell is the interpreter command, defaults to "/usr/bin/env bash"
	Shell []string
}

// Run executes script with vars bound, streaming merged stdout and stderr
// to out as it is produced
func (r *HostRunner) Run(ctx context.Context, script string, vars *Variables, out LineFunc) error {
	text, err := WrapScript(vars, script)
	if err != nil {
		return err
	}

	shell := r.Shell
	if len(shell) == 0 {
		shell = []string{"/usr/bin/env", "bash"}
	}

	args := append(append([]string(nil), shell[1:]...), "-c", text)
	cmd := exec.CommandContext(ctx, shell[0], args...)
	return Stream(cmd, out)
}

// Stream starts cmd and forwards each line of its combined output to out.
// It returns once the command has exited and all output was consumed.
func Stream(cmd *exec.Cmd, out LineFunc) error {
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}

	done := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		done <- err
	}()

	if err := ForwardLines(pr, out); err != nil {
		pr.CloseWithError(err)
		<-done
		return err
	}

	err := <-done
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ScriptError{ExitCode: exitErr.ExitCode()}
	}
	return err
}

// ForwardLines reads r until EOF and passes each line to out
func ForwardLines(r io.Reader, out LineFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		if out != nil {
			out(scanner.Text())
		}
	}

	return scanner.Err()
}
