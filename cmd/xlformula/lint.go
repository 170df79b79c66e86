package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandrolain/xlformula/pkg/builtin"
	"github.com/sandrolain/xlformula/pkg/compat"
)

func newLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "lint FORMULA",
		Short:   "Report spreadsheet constructs this formula language does not support",
		Example: `  xlformula lint '=SUM(Sheet1!A1:A3)'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			findings := compat.Lint(args[0], builtin.NewRegistry())
			w := cmd.OutOrStdout()
			if len(findings) == 0 {
				fmt.Fprintln(w, "ok")
				return nil
			}
			for _, f := range findings {
				fmt.Fprintln(w, f)
			}
			return errFailed
		},
	}
}
