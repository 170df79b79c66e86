package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandrolain/xlformula"
	"github.com/sandrolain/xlformula/pkg/builtin"
	"github.com/sandrolain/xlformula/pkg/evaluator"
	"github.com/sandrolain/xlformula/pkg/types"
)

// engineFlags are shared by eval and batch.
type engineFlags struct {
	varsFile  string
	wildcards bool
	date1904  bool
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.varsFile, "vars", "", "YAML or JSON file of variable bindings")
	cmd.Flags().BoolVar(&f.wildcards, "wildcards", false, "enable * and ? in COUNTIF/SUMIF criteria")
	cmd.Flags().BoolVar(&f.date1904, "date1904", false, "use the 1904 date system for serial numbers")
}

func (f *engineFlags) engine(opts *globalOptions, ctx *types.Context) *xlformula.Engine {
	bopts := []builtin.Option{builtin.WithClock(clock)}
	if f.wildcards {
		bopts = append(bopts, builtin.WithWildcards())
	}
	if f.date1904 {
		bopts = append(bopts, builtin.With1904Dates())
	}
	return xlformula.New(
		xlformula.WithContext(ctx),
		xlformula.WithBuiltins(bopts...),
		xlformula.WithLogger(opts.logger),
		xlformula.WithDebug(opts.debug),
	)
}

// context loads the --vars file into a fresh context.
func (f *engineFlags) context() (*types.Context, error) {
	ctx := types.NewContext()
	if f.varsFile == "" {
		return ctx, nil
	}
	vars, err := loadVarsFile(f.varsFile)
	if err != nil {
		return nil, err
	}
	vars.Range(func(name string, v types.Value) bool {
		ctx.Set(name, v)
		return true
	})
	return ctx, nil
}

type evalOutput struct {
	Formula string      `json:"formula"`
	Value   types.Value `json:"value"`
	Kind    string      `json:"kind"`
	OK      bool        `json:"ok"`
	Errors  []string    `json:"errors,omitempty"`
	Hints   []string    `json:"hints,omitempty"`
}

func newEvalCmd(opts *globalOptions) *cobra.Command {
	var (
		ef     engineFlags
		sets   []string
		trace  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "eval FORMULA",
		Short:   "Evaluate a formula",
		Example: `  xlformula eval 'SUM(A, B) * 2' --set A=1 --set B=2
  xlformula eval 'COUNTIF(Scores, ">50")' --vars scores.yaml --trace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := ef.context()
			if err != nil {
				return err
			}
			for _, s := range sets {
				name, v, err := parseAssignment(s)
				if err != nil {
					return err
				}
				ctx.Set(name, v)
			}
			eng := ef.engine(opts, ctx)
			formula := args[0]

			var res xlformula.EvaluationResult
			if trace {
				var tr *evaluator.Trace
				res, tr = eng.EvaluateWithTrace(formula)
				if tr != nil && !asJSON {
					fmt.Fprint(cmd.OutOrStdout(), tr.String())
				}
			} else {
				res = eng.Evaluate(formula)
			}

			out := evalOutput{
				Formula: formula,
				Value:   res.Value,
				Kind:    res.Value.Kind().String(),
				OK:      res.OK(),
				Hints:   unknownFunctionHints(eng, formula),
			}
			for _, pe := range res.ParseErrors {
				out.Errors = append(out.Errors, pe.Error())
			}
			if err := writeEval(cmd.OutOrStdout(), cmd.ErrOrStderr(), out, asJSON); err != nil {
				return err
			}
			if !res.OK() {
				return errFailed
			}
			return nil
		},
	}
	ef.register(cmd)
	cmd.Flags().StringArrayVar(&sets, "set", nil, "bind a variable, NAME=VALUE (repeatable)")
	cmd.Flags().BoolVar(&trace, "trace", false, "print the evaluation trace")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func writeEval(stdout, stderr io.Writer, out evalOutput, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	for _, e := range out.Errors {
		fmt.Fprintln(stderr, "parse error:", e)
	}
	for _, h := range out.Hints {
		fmt.Fprintln(stderr, h)
	}
	_, err := fmt.Fprintln(stdout, out.Value.String())
	return err
}

// unknownFunctionHints lists "did you mean" hints for calls to
// functions the engine does not know.
func unknownFunctionHints(eng *xlformula.Engine, formula string) []string {
	res := eng.Parse(formula)
	if !res.OK() {
		return nil
	}
	var hints []string
	seen := map[string]bool{}
	res.AST.AST().Walk(func(n *types.Node) bool {
		if n.Kind != types.NodeCall || seen[n.Name] || eng.Registry().Has(n.Name) {
			return true
		}
		seen[n.Name] = true
		hint := fmt.Sprintf("unknown function %s", n.Name)
		if s := eng.Registry().Suggest(n.Name, 3); len(s) > 0 {
			hint += fmt.Sprintf(" (did you mean %s?)", strings.Join(s, ", "))
		}
		hints = append(hints, hint)
		return true
	})
	return hints
}
