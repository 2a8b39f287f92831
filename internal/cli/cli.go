// Package cli parses the notices command line and runs the application with
// a configured logger.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ben-ranford/notices/internal/app"
	"github.com/sirupsen/logrus"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

type Runner interface {
	Execute(ctx context.Context, req app.Request) (app.Result, error)
}

// RunnerFactory builds the runner once the log level is known.
type RunnerFactory func(log logrus.FieldLogger) Runner

type CLI struct {
	NewRunner RunnerFactory
	Out       io.Writer
	Err       io.Writer
}

func New(newRunner RunnerFactory, out io.Writer, errOut io.Writer) *CLI {
	return &CLI{
		NewRunner: newRunner,
		Out:       out,
		Err:       errOut,
	}
}

func (c *CLI) Run(ctx context.Context, args []string) int {
	opts, err := ParseArgs(args, c.Out)
	if err != nil {
		if errors.Is(err, ErrHelpRequested) {
			return ExitOK
		}
		fmt.Fprintf(c.Err, "error: %v\n\n", err)
		fmt.Fprint(c.Err, Usage())
		return ExitUsage
	}

	logger := NewLogger(c.Err, opts.LogLevel)
	if _, err := c.NewRunner(logger).Execute(ctx, opts.Request); err != nil {
		logger.Error(err)
		return ExitError
	}
	return ExitOK
}

// NewLogger returns a text logger writing to out.
func NewLogger(out io.Writer, level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000000000Z07:00",
	})
	return logger
}
