package main

import (
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandrolain/xlformula"
)

// errFailed reports a formula that did not parse or produced an Error
// value. The details are already printed.
var errFailed = errors.New("formula failed")

// clock is the time source of TODAY and NOW.
var clock = time.Now

type globalOptions struct {
	debug  bool
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{logger: slog.Default()}
	root := &cobra.Command{
		Use:           "xlformula",
		Short:         "Parse and evaluate spreadsheet formulas",
		Version:       xlformula.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if opts.debug {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log parsing and evaluation steps to stderr")

	root.AddCommand(
		newEvalCmd(opts),
		newBatchCmd(opts),
		newParseCmd(),
		newTokensCmd(),
		newFunctionsCmd(),
		newLintCmd(),
	)
	return root
}
