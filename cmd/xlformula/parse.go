package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandrolain/xlformula"
	"github.com/sandrolain/xlformula/pkg/parser"
)

type parseOutput struct {
	Canonical   string   `json:"canonical,omitempty"`
	Nodes       int      `json:"nodes,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

func newParseCmd() *cobra.Command {
	var (
		fingerprint bool
		asJSON      bool
		maxDepth    int
	)
	cmd := &cobra.Command{
		Use:   "parse FORMULA",
		Short: "Parse a formula and print its canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := xlformula.Parse(args[0], parser.WithMaxDepth(maxDepth))
			var out parseOutput
			if res.OK() {
				out.Canonical = res.AST.String()
				out.Nodes = res.AST.NodeCount()
				if fingerprint {
					fp, err := res.AST.Fingerprint()
					if err != nil {
						return fmt.Errorf("fingerprint: %w", err)
					}
					out.Fingerprint = fp
				}
			}
			for _, pe := range res.Errors {
				out.Errors = append(out.Errors, pe.Error())
			}

			w := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(out); err != nil {
					return err
				}
			case res.OK():
				fmt.Fprintln(w, out.Canonical)
				fmt.Fprintf(w, "nodes: %d\n", out.Nodes)
				if fingerprint {
					fmt.Fprintf(w, "fingerprint: %s\n", out.Fingerprint)
				}
			default:
				for _, e := range out.Errors {
					fmt.Fprintln(cmd.ErrOrStderr(), "parse error:", e)
				}
			}
			if !res.OK() {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fingerprint, "fingerprint", false, "print the structural fingerprint of the tree")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().IntVar(&maxDepth, "max-depth", parser.DefaultMaxDepth, "maximum nesting depth")
	return cmd
}
