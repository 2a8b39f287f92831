package cli

import "github.com/spf13/cobra"

func Usage() string {
	cmd, _ := newCommand(func(*cobra.Command, []string) error { return nil })
	return cmd.UsageString()
}
