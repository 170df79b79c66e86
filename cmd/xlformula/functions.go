package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sandrolain/xlformula/pkg/builtin"
	"github.com/sandrolain/xlformula/pkg/functions"
)

func newFunctionsCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "functions",
		Short: "List the built-in functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := builtin.NewRegistry()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCATEGORY\tARGS")
			n := 0
			for _, name := range reg.Names() {
				def, _ := reg.Def(name)
				if category != "" && def.Category != category {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", def.Name, def.Category, arity(def))
				n++
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("no functions in category %q", category)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list one category (logical, information, math, statistical, text, datetime)")
	return cmd
}

// arity renders the argument bounds: "1", "1-3" or "2+".
func arity(def *functions.Def) string {
	switch {
	case def.MaxArgs < 0:
		return strconv.Itoa(def.MinArgs) + "+"
	case def.MinArgs == def.MaxArgs:
		return strconv.Itoa(def.MinArgs)
	}
	return fmt.Sprintf("%d-%d", def.MinArgs, def.MaxArgs)
}
