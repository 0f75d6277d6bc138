// Command myshell is the entrypoint for the interactive job-control
// shell. The teacher's retrieval didn't include a main package at
// all; the rest of the pack is consistent about a cmd/<binary>/main.go
// wrapping a spf13/cobra root command
// (SanjoDeundiak-process-runner/cmd/cli, josephlewis42-honeyssh/cmd),
// so this follows that shape even though the shell itself takes no
// positional arguments — cobra's root command runs with zero args
// exactly like a plain main() would, while still giving the binary a
// flag surface for the one piece of local configuration otherwise
// left unspecified: where the startup rc file lives.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"myshell/internal/config"
	"myshell/internal/shell"
)

func main() {
	os.Exit(run())
}

func run() int {
	var rcfile string

	root := &cobra.Command{
		Use:           "myshell",
		Short:         "A POSIX-style job-control shell",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	root.Flags().StringVar(&rcfile, "rcfile", config.DefaultPath(), "startup config file (aliases, extra PATH entries)")

	exitCode := 0
	root.RunE = func(cmd *cobra.Command, args []string) error {
		exitCode = runShell(rcfile)
		return nil
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return exitCode
}

func runShell(rcfile string) int {
	cfg, err := config.Load(rcfile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if err := cfg.ApplyPath(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	sh, err := shell.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return sh.Run()
}
