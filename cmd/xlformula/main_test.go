package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/xlformula/pkg/types"
)

func init() {
	clock = func() time.Time { return time.Date(2024, 5, 6, 13, 45, 0, 0, time.UTC) }
}

type result struct {
	code   int
	stdout string
	stderr string
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code, stdout.String(), stderr.String()}
}

func writeVars(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vars.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const sampleVars = `
Scores: [10, 60, 75]
Words: [apple, avocado, banana]
Name: Ada
Start: {date: "2024-01-31"}
Missing: {error: "#N/A"}
Flag: true
Nothing: null
`

func TestEval(t *testing.T) {
	vars := writeVars(t, sampleVars)
	tests := []struct {
		name   string
		args   []string
		code   int
		stdout string
	}{
		{"set flags", []string{"eval", "SUM(A, B) * 2", "--set", "A=1", "--set", "B=2"}, 0, "6\n"},
		{"text binding", []string{"eval", `"Hi " & N`, "--set", "N=there"}, 0, "Hi there\n"},
		{"error result", []string{"eval", "1/0"}, 1, "#DIV/0!\n"},
		{"parse failure", []string{"eval", "1+"}, 1, "#PARSE!\n"},
		{"vars file", []string{"eval", `AVERAGEIF(Scores, ">50")`, "--vars", vars}, 0, "67.5\n"},
		{"vars date", []string{"eval", "EDATE(Start, 1)", "--vars", vars}, 0, "2024-02-29\n"},
		{"vars error", []string{"eval", `IFNA(Missing, "none")`, "--vars", vars}, 0, "none\n"},
		{"vars null", []string{"eval", "ISBLANK(Nothing)", "--vars", vars}, 0, "TRUE\n"},
		{"wildcards off", []string{"eval", `COUNTIF(Words, "a*")`, "--vars", vars}, 0, "0\n"},
		{"wildcards on", []string{"eval", `COUNTIF(Words, "a*")`, "--vars", vars, "--wildcards"}, 0, "2\n"},
		{"clock", []string{"eval", "TODAY()"}, 0, "2024-05-06\n"},
		{"1904 dates", []string{"eval", "N(DATE(1904, 1, 2))", "--date1904"}, 0, "1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := execute(t, "", tt.args...)
			assert.Equal(t, tt.code, got.code, got.stderr)
			assert.Equal(t, tt.stdout, got.stdout)
		})
	}
}

func TestEvalDiagnostics(t *testing.T) {
	got := execute(t, "", "eval", "1+")
	assert.Contains(t, got.stderr, "parse error:")

	got = execute(t, "", "eval", "SUMM(1)")
	assert.Equal(t, 1, got.code)
	assert.Equal(t, "#NAME?\n", got.stdout)
	assert.Contains(t, got.stderr, "unknown function SUMM (did you mean SUM")

	got = execute(t, "", "eval", "1", "--set", "novalue")
	assert.Equal(t, 1, got.code)
	assert.Contains(t, got.stderr, "want NAME=VALUE")

	got = execute(t, "", "eval", "1", "--vars", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, 1, got.code)
	assert.Contains(t, got.stderr, "read variables")
}

func TestEvalTrace(t *testing.T) {
	got := execute(t, "", "eval", "1 + 2", "--trace")
	require.Equal(t, 0, got.code)
	assert.True(t, strings.HasPrefix(got.stdout, "#1 binary + => 3\n"), got.stdout)
	assert.True(t, strings.HasSuffix(got.stdout, "\n3\n"), got.stdout)
}

func TestEvalJSON(t *testing.T) {
	got := execute(t, "", "eval", "A * 2", "--set", "A=21", "--json")
	require.Equal(t, 0, got.code)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(got.stdout), &out))
	want := map[string]any{
		"formula": "A * 2",
		"value":   42.0,
		"kind":    "number",
		"ok":      true,
	}
	assert.Empty(t, cmp.Diff(want, out))

	got = execute(t, "", "eval", "(1", "--json")
	assert.Equal(t, 1, got.code)
	require.NoError(t, json.Unmarshal([]byte(got.stdout), &out))
	assert.Equal(t, "#PARSE!", out["value"])
	assert.NotEmpty(t, out["errors"])
}

func TestDebugFlagLogs(t *testing.T) {
	got := execute(t, "", "eval", "1+1", "--debug")
	require.Equal(t, 0, got.code)
	assert.Contains(t, got.stderr, "evaluated formula")

	got = execute(t, "", "eval", "1+1")
	assert.Empty(t, got.stderr)
}

func TestParseCommand(t *testing.T) {
	got := execute(t, "", "parse", "1+2*3")
	require.Equal(t, 0, got.code)
	assert.Equal(t, "(1 + (2 * 3))\nnodes: 5\n", got.stdout)

	got = execute(t, "", "parse", "1 + 2 * 3", "--fingerprint")
	require.Equal(t, 0, got.code)
	lines := strings.Split(strings.TrimSpace(got.stdout), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[2], "fingerprint: "))

	again := execute(t, "", "parse", "1+2*3", "--fingerprint")
	assert.Equal(t, got.stdout, again.stdout, "fingerprint ignores spacing")

	got = execute(t, "", "parse", "SUM(1,")
	assert.Equal(t, 1, got.code)
	assert.Contains(t, got.stderr, "parse error:")

	got = execute(t, "", "parse", "((1))", "--max-depth", "1")
	assert.Equal(t, 1, got.code)
}

func TestTokensCommand(t *testing.T) {
	got := execute(t, "", "tokens", `1 + "two"`)
	require.Equal(t, 0, got.code)
	assert.Contains(t, got.stdout, "POS")
	assert.Contains(t, got.stdout, "(number)")
	assert.Contains(t, got.stdout, `"two"`)
	assert.Contains(t, got.stdout, "(eof)")
}

func TestFunctionsCommand(t *testing.T) {
	got := execute(t, "", "functions", "--category", "text")
	require.Equal(t, 0, got.code)
	assert.Contains(t, got.stdout, "UPPER")
	assert.NotContains(t, got.stdout, "SUMIF")

	got = execute(t, "", "functions")
	assert.Contains(t, got.stdout, "SUMIF ")
	assert.Regexp(t, `IF\s+logical\s+2-3`, got.stdout)

	got = execute(t, "", "functions", "--category", "nope")
	assert.Equal(t, 1, got.code)
}

func TestLintCommand(t *testing.T) {
	got := execute(t, "", "lint", "SUM(1, 2)")
	assert.Equal(t, 0, got.code)
	assert.Equal(t, "ok\n", got.stdout)

	got = execute(t, "", "lint", "=SUM(A1:A3)")
	assert.Equal(t, 1, got.code)
	assert.Contains(t, got.stdout, "leading-equals")
	assert.Contains(t, got.stdout, "reference")
}

func TestBatchCommand(t *testing.T) {
	input := strings.Join([]string{
		`{"formula": "A * 2", "vars": {"A": 21}}`,
		`not json`,
		``,
		`{"formula": "1/0"}`,
		`{"formula": "A"}`,
		`{"formula": "1", "vars": {"bad name": 1}}`,
		`{"formula": "SUM(1,"}`,
	}, "\n")
	got := execute(t, input, "batch")
	require.Equal(t, 0, got.code, got.stderr)

	var lines []map[string]any
	sc := bufio.NewScanner(strings.NewReader(got.stdout))
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	require.Len(t, lines, 6)

	assert.Equal(t, 42.0, lines[0]["value"])
	assert.Equal(t, true, lines[0]["ok"])
	assert.Equal(t, false, lines[1]["ok"])
	assert.Contains(t, lines[1]["error"], "invalid request JSON")
	assert.Equal(t, "#DIV/0!", lines[2]["value"])
	assert.Equal(t, "error", lines[2]["kind"])
	assert.Equal(t, "empty", lines[3]["kind"], "request vars do not leak")
	assert.Contains(t, lines[4]["error"], "invalid variables")
	assert.Equal(t, "#PARSE!", lines[5]["value"])
	assert.Equal(t, false, lines[5]["ok"])
	assert.NotEmpty(t, lines[5]["error"])
	assert.NotContains(t, lines[2], "error", "evaluation errors are values, not request errors")
	assert.Contains(t, got.stderr, "batch request rejected")
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		in   string
		name string
		want types.Value
	}{
		{"A=1.5", "A", types.NewNumber(1.5)},
		{"B=true", "B", types.NewBoolean(true)},
		{"C=FALSE", "C", types.NewBoolean(false)},
		{"D=#N/A", "D", types.NewError(types.ErrNA)},
		{"E=hello world", "E", types.NewText("hello world")},
		{"F=", "F", types.NewText("")},
		{"G=a=b", "G", types.NewText("a=b")},
	}
	for _, tt := range tests {
		name, v, err := parseAssignment(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.name, name)
		assert.True(t, tt.want.Equal(v), "%s: got %#v", tt.in, v)
	}
	_, _, err := parseAssignment("=1")
	assert.Error(t, err)
}

func TestParseVars(t *testing.T) {
	ctx, err := parseVars([]byte(sampleVars))
	require.NoError(t, err)
	assert.Equal(t, []string{"Scores", "Words", "Name", "Start", "Missing", "Flag", "Nothing"}, ctx.Names())
	assert.True(t, ctx.Get("Scores").Equal(types.NewArray(types.NewNumber(10), types.NewNumber(60), types.NewNumber(75))))
	assert.True(t, ctx.Get("Start").IsDate())
	assert.Equal(t, types.ErrNA, ctx.Get("Missing").Err())
	assert.True(t, ctx.Get("Nothing").IsEmpty())

	ctx, err = parseVars([]byte(`{"X": 1, "Y": "two"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, ctx.Names())

	ctx, err = parseVars(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ctx.Len())

	for _, bad := range []string{
		"- 1\n- 2\n",
		"X: {foo: 1}\n",
		"X: [[1, 2]]\n",
		"X: {error: \"#WHAT?\"}\n",
		"1bad: 1\n",
		"X: {date: \"yesterday\"}\n",
		"X: [1\n",
	} {
		_, err := parseVars([]byte(bad))
		assert.Error(t, err, bad)
	}
}
