package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &Options{}
	root := &cobra.Command{
		Use:          "extractctl",
		Short:        "Submit and track PDF extraction tasks",
		SilenceUsage: true,
	}
	opts.AddFlags(root.PersistentFlags())

	root.AddCommand(
		NewSubmitCommand(opts),
		NewStatusCommand(opts),
		NewDownloadCommand(opts),
		NewRunCommand(opts),
	)
	return root
}
