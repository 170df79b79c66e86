package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sandrolain/xlformula/pkg/parser"
)

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens FORMULA",
		Short: "Print the lexical tokens of a formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "POS\tTYPE\tVALUE")
			for _, tok := range parser.Tokenize(args[0]) {
				fmt.Fprintf(tw, "%d\t%s\t%q\n", tok.Position, tok.Type, tok.Value)
			}
			return tw.Flush()
		},
	}
}
