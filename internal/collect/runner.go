package collect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var ErrExternalTool = errors.New("external tool failed")

// ToolError reports a package-manager command that could not be started or
// exited unsuccessfully.
type ToolError struct {
	Command []string
	Err     error
	Stderr  string
}

func (e *ToolError) Error() string {
	command := strings.Join(e.Command, " ")
	if e.Stderr == "" {
		return fmt.Sprintf("running `%s` failed: %v", command, e.Err)
	}
	return fmt.Sprintf("running `%s` failed: %v: %s", command, e.Err, e.Stderr)
}

func (e *ToolError) Unwrap() []error {
	return []error{ErrExternalTool, e.Err}
}

// Runner executes an external command in dir and returns its stdout.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	command := append([]string{name}, args...)
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, &ToolError{Command: command, Err: err}
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &ToolError{Command: command, Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}
	return output, nil
}
