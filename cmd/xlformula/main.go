// Command xlformula parses, evaluates and inspects spreadsheet formulas.
//
//	xlformula eval 'SUM(A, B) * 2' --set A=1 --set B=2
//	xlformula eval 'AVERAGEIF(Scores, ">50")' --vars scores.yaml --json
//	xlformula parse 'IF(X > 0, "pos", "neg")' --fingerprint
//	xlformula tokens '1 + "two"'
//	xlformula functions --category text
//	xlformula lint '=SUM(A1:A3)'
//	echo '{"formula":"1+1"}' | xlformula batch
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	return 0
}
