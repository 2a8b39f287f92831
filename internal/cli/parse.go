package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/ben-ranford/notices/internal/app"
	"github.com/ben-ranford/notices/internal/report"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const longDescription = "Generate 3rd-party-notices.{html,json,md} for the Cargo and pnpm dependencies of a project.\n\n" +
	"CONFIG_FILE defaults to notices.toml and is resolved against the project directory."

var ErrHelpRequested = errors.New("help requested")

type Options struct {
	Request  app.Request
	LogLevel logrus.Level
}

type flagValues struct {
	projectPath string
	outputDir   string
	logLevel    string
	formats     []string
	check       bool
}

func newCommand(run func(cmd *cobra.Command, args []string) error) (*cobra.Command, *flagValues) {
	values := &flagValues{}
	cmd := &cobra.Command{
		Use:                   "notices [OPTIONS] [CONFIG_FILE]",
		Short:                 "Generate third-party license notices for Cargo and pnpm projects",
		Long:                  longDescription,
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Args:                  cobra.MaximumNArgs(1),
		RunE:                  run,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.Flags()
	flags.StringVar(&values.projectPath, "project", ".", "Project directory to collect dependencies from")
	flags.StringVar(&values.outputDir, "output-dir", "", "Directory to write the notices documents to (default: working directory)")
	flags.StringVar(&values.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringSliceVar(&values.formats, "format", nil, "Documents to write: html, markdown, json (default: all)")
	flags.BoolVar(&values.check, "check", false, "Validate licenses without writing any documents")
	return cmd, values
}

// ParseArgs parses args into run options. Help output goes to out and is
// reported as ErrHelpRequested.
func ParseArgs(args []string, out io.Writer) (Options, error) {
	if args == nil {
		args = []string{}
	}
	var opts Options
	ran := false
	cmd, values := newCommand(func(_ *cobra.Command, positional []string) error {
		ran = true
		if len(positional) == 1 {
			opts.Request.ConfigPath = positional[0]
		}
		return nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	if err := cmd.Execute(); err != nil {
		return Options{}, err
	}
	if !ran {
		return Options{}, ErrHelpRequested
	}

	level, err := logrus.ParseLevel(values.logLevel)
	if err != nil {
		return Options{}, fmt.Errorf("invalid --log-level: %w", err)
	}
	formats, err := report.ParseFormats(values.formats)
	if err != nil {
		return Options{}, fmt.Errorf("invalid --format: %w", err)
	}
	opts.LogLevel = level
	opts.Request.ProjectPath = values.projectPath
	opts.Request.OutputDir = values.outputDir
	opts.Request.Formats = formats
	opts.Request.Check = values.check
	return opts, nil
}
