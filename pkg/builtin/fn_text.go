package builtin

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sandrolain/xlformula/pkg/functions"
	"github.com/sandrolain/xlformula/pkg/types"
)

// maxTextLength is the longest Text a function may produce.
const maxTextLength = 32767

// text returns the text functions. Positions and lengths count bytes.
func text() []functions.Def {
	return []functions.Def{
		def("CONCATENATE", CategoryText, 1, -1, fnConcat),
		def("CONCAT", CategoryText, 1, -1, fnConcat),
		def("TEXTJOIN", CategoryText, 3, -1, fnTextJoin),
		def("LEN", CategoryText, 1, 1, fnLen),
		def("LEFT", CategoryText, 1, 2, fnLeft),
		def("RIGHT", CategoryText, 1, 2, fnRight),
		def("MID", CategoryText, 3, 3, fnMid),
		def("UPPER", CategoryText, 1, 1, caseMapper(func() cases.Caser { return cases.Upper(language.Und) })),
		def("LOWER", CategoryText, 1, 1, caseMapper(func() cases.Caser { return cases.Lower(language.Und) })),
		def("PROPER", CategoryText, 1, 1, caseMapper(func() cases.Caser { return cases.Title(language.Und) })),
		def("TRIM", CategoryText, 1, 1, fnTrim),
		def("REPT", CategoryText, 2, 2, fnRept),
		def("SUBSTITUTE", CategoryText, 3, 4, fnSubstitute),
		def("FIND", CategoryText, 2, 3, fnFind),
		def("EXACT", CategoryText, 2, 2, fnExact),
		def("VALUE", CategoryText, 1, 1, fnValue),
		def("T", CategoryText, 1, 1, fnT),
	}
}

func textResult(s string) types.Value {
	if len(s) > maxTextLength {
		return types.NewError(types.ErrValue)
	}
	return types.NewText(s)
}

// textAndCount reads (text, [count]) where count defaults to 1.
func textAndCount(args []types.Value) (string, int, types.Value) {
	s, _ := functions.TextArg(args[0])
	n := 1
	if len(args) > 1 {
		var e types.Value
		if n, e = functions.IntArg(args[1]); e.IsError() {
			return "", 0, e
		}
	}
	if n < 0 {
		return "", 0, types.NewError(types.ErrValue)
	}
	return s, n, types.Value{}
}

func fnConcat(args []types.Value, _ *types.Context) types.Value {
	var b strings.Builder
	for _, v := range functions.Flatten(args) {
		b.WriteString(v.String())
	}
	return textResult(b.String())
}

// TEXTJOIN(delimiter, ignore_empty, text1, ...).
func fnTextJoin(args []types.Value, _ *types.Context) types.Value {
	delim, _ := functions.TextArg(args[0])
	skip, e := condition(args[1])
	if e.IsError() {
		return e
	}
	var parts []string
	for _, v := range functions.Flatten(args[2:]) {
		s := v.String()
		if skip && s == "" {
			continue
		}
		parts = append(parts, s)
	}
	return textResult(strings.Join(parts, delim))
}

func fnLen(args []types.Value, _ *types.Context) types.Value {
	s, _ := functions.TextArg(args[0])
	return types.NewNumber(float64(len(s)))
}

func fnLeft(args []types.Value, _ *types.Context) types.Value {
	s, n, e := textAndCount(args)
	if e.IsError() {
		return e
	}
	return types.NewText(s[:min(n, len(s))])
}

func fnRight(args []types.Value, _ *types.Context) types.Value {
	s, n, e := textAndCount(args)
	if e.IsError() {
		return e
	}
	return types.NewText(s[len(s)-min(n, len(s)):])
}

// MID(text, start, count) with a 1-based start.
func fnMid(args []types.Value, _ *types.Context) types.Value {
	s, _ := functions.TextArg(args[0])
	start, e := functions.IntArg(args[1])
	if e.IsError() {
		return e
	}
	n, e := functions.IntArg(args[2])
	if e.IsError() {
		return e
	}
	if start < 1 || n < 0 {
		return types.NewError(types.ErrValue)
	}
	if start > len(s) {
		return types.NewText("")
	}
	from := start - 1
	return types.NewText(s[from:min(from+n, len(s))])
}

// caseMapper builds UPPER, LOWER and PROPER. Casers keep state, so each
// call gets a fresh one.
func caseMapper(newCaser func() cases.Caser) functions.Func {
	return func(args []types.Value, _ *types.Context) types.Value {
		s, _ := functions.TextArg(args[0])
		return types.NewText(newCaser().String(s))
	}
}

// TRIM drops leading and trailing spaces and collapses inner runs of
// spaces to one. Only the space character is affected.
func fnTrim(args []types.Value, _ *types.Context) types.Value {
	s, _ := functions.TextArg(args[0])
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' })
	return types.NewText(strings.Join(fields, " "))
}

func fnRept(args []types.Value, _ *types.Context) types.Value {
	s, _ := functions.TextArg(args[0])
	n, e := functions.IntArg(args[1])
	if e.IsError() {
		return e
	}
	if n < 0 || len(s)*n > maxTextLength {
		return types.NewError(types.ErrValue)
	}
	return types.NewText(strings.Repeat(s, n))
}

// SUBSTITUTE(text, old, new, [instance]) replaces every occurrence of
// old, or only the instance-th one.
func fnSubstitute(args []types.Value, _ *types.Context) types.Value {
	s, _ := functions.TextArg(args[0])
	old, _ := functions.TextArg(args[1])
	repl, _ := functions.TextArg(args[2])
	if old == "" {
		return types.NewText(s)
	}
	if len(args) == 3 {
		return textResult(strings.ReplaceAll(s, old, repl))
	}

	nth, e := functions.IntArg(args[3])
	if e.IsError() {
		return e
	}
	if nth < 1 {
		return types.NewError(types.ErrValue)
	}
	at := 0
	for i := 0; i < nth; i++ {
		idx := strings.Index(s[at:], old)
		if idx < 0 {
			return types.NewText(s)
		}
		at += idx
		if i < nth-1 {
			at += len(old)
		}
	}
	return textResult(s[:at] + repl + s[at+len(old):])
}

// FIND(needle, haystack, [start]) returns the 1-based, case-sensitive
// position of needle, or #VALUE! when absent.
func fnFind(args []types.Value, _ *types.Context) types.Value {
	needle, _ := functions.TextArg(args[0])
	hay, _ := functions.TextArg(args[1])
	start := 1
	if len(args) == 3 {
		var e types.Value
		if start, e = functions.IntArg(args[2]); e.IsError() {
			return e
		}
	}
	if start < 1 || start > len(hay)+1 {
		return types.NewError(types.ErrValue)
	}
	idx := strings.Index(hay[start-1:], needle)
	if idx < 0 {
		return types.NewError(types.ErrValue)
	}
	return types.NewNumber(float64(start + idx))
}

func fnExact(args []types.Value, _ *types.Context) types.Value {
	a, _ := functions.TextArg(args[0])
	b, _ := functions.TextArg(args[1])
	return types.NewBoolean(a == b)
}

// VALUE converts numeric text to a Number.
func fnValue(args []types.Value, _ *types.Context) types.Value {
	v := args[0]
	switch {
	case v.IsNumber():
		return v
	case v.IsEmpty():
		return types.NewNumber(0)
	case v.IsText():
		if n, ok := types.ParseNumber(v.Str()); ok {
			return types.NewNumber(n)
		}
	}
	return types.NewError(types.ErrValue)
}

// T returns Text arguments unchanged and "" for anything else.
func fnT(args []types.Value, _ *types.Context) types.Value {
	if args[0].IsText() {
		return args[0]
	}
	return types.NewText("")
}
