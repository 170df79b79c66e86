package builtin

import (
	"github.com/sandrolain/xlformula/pkg/functions"
	"github.com/sandrolain/xlformula/pkg/types"
)

func logical() []functions.Def {
	iferror := def("IFERROR", CategoryLogical, 2, 2, fnIfError)
	iferror.PassErrors = true
	ifna := def("IFNA", CategoryLogical, 2, 2, fnIfNA)
	ifna.PassErrors = true

	return []functions.Def{
		def("IF", CategoryLogical, 2, 3, fnIf),
		def("IFS", CategoryLogical, 2, -1, fnIfs),
		iferror,
		ifna,
		def("AND", CategoryLogical, 1, -1, fnAnd),
		def("OR", CategoryLogical, 1, -1, fnOr),
		def("XOR", CategoryLogical, 1, -1, fnXor),
		def("NOT", CategoryLogical, 1, 1, fnNot),
		def("TRUE", CategoryLogical, 0, 0, constant(types.NewBoolean(true))),
		def("FALSE", CategoryLogical, 0, 0, constant(types.NewBoolean(false))),
		def("SWITCH", CategoryLogical, 3, -1, fnSwitch),
		def("CHOOSE", CategoryLogical, 2, -1, fnChoose),
	}
}

func constant(v types.Value) functions.Func {
	return func([]types.Value, *types.Context) types.Value { return v }
}

// condition reads v as a test. Text that is not numeric is #VALUE!.
func condition(v types.Value) (bool, types.Value) {
	if v.IsText() && !v.CanConvertToNumber() {
		return false, types.NewError(types.ErrValue)
	}
	if v.IsArray() || v.IsDate() {
		return false, types.NewError(types.ErrValue)
	}
	return functions.Truthy(v), types.Value{}
}

// IF(test, then, [else]). Both branches are already evaluated.
func fnIf(args []types.Value, _ *types.Context) types.Value {
	ok, e := condition(args[0])
	if e.IsError() {
		return e
	}
	if ok {
		return args[1]
	}
	if len(args) == 3 {
		return args[2]
	}
	return types.NewBoolean(false)
}

// IFS(test1, value1, [test2, value2], ...) returns the value paired with
// the first true test, or #N/A when none holds.
func fnIfs(args []types.Value, _ *types.Context) types.Value {
	if len(args)%2 != 0 {
		return types.NewError(types.ErrValue)
	}
	for i := 0; i < len(args); i += 2 {
		ok, e := condition(args[i])
		if e.IsError() {
			return e
		}
		if ok {
			return args[i+1]
		}
	}
	return types.NewError(types.ErrNA)
}

func fnIfError(args []types.Value, _ *types.Context) types.Value {
	if args[0].IsError() {
		return args[1]
	}
	return args[0]
}

// IFNA only replaces #N/A; other errors pass through.
func fnIfNA(args []types.Value, _ *types.Context) types.Value {
	if args[0].Err() == types.ErrNA {
		return args[1]
	}
	return args[0]
}

// truths collects the logical readings of args. Empty and text that is
// not numeric are skipped. No readable value at all is #VALUE!.
func truths(args []types.Value) ([]bool, types.Value) {
	var out []bool
	for _, v := range functions.Flatten(args) {
		switch {
		case v.IsEmpty(), v.IsDate():
			continue
		case v.IsText() && !v.CanConvertToNumber():
			continue
		}
		out = append(out, functions.Truthy(v))
	}
	if len(out) == 0 {
		return nil, types.NewError(types.ErrValue)
	}
	return out, types.Value{}
}

func fnAnd(args []types.Value, _ *types.Context) types.Value {
	bs, e := truths(args)
	if e.IsError() {
		return e
	}
	for _, b := range bs {
		if !b {
			return types.NewBoolean(false)
		}
	}
	return types.NewBoolean(true)
}

func fnOr(args []types.Value, _ *types.Context) types.Value {
	bs, e := truths(args)
	if e.IsError() {
		return e
	}
	for _, b := range bs {
		if b {
			return types.NewBoolean(true)
		}
	}
	return types.NewBoolean(false)
}

// XOR is true when an odd number of arguments are true.
func fnXor(args []types.Value, _ *types.Context) types.Value {
	bs, e := truths(args)
	if e.IsError() {
		return e
	}
	odd := false
	for _, b := range bs {
		if b {
			odd = !odd
		}
	}
	return types.NewBoolean(odd)
}

func fnNot(args []types.Value, _ *types.Context) types.Value {
	ok, e := condition(args[0])
	if e.IsError() {
		return e
	}
	return types.NewBoolean(!ok)
}

// SWITCH(expr, value1, result1, [value2, result2], ..., [default]).
// Values match by typed equality.
func fnSwitch(args []types.Value, _ *types.Context) types.Value {
	subject := args[0]
	rest := args[1:]
	for len(rest) >= 2 {
		if subject.Equal(rest[0]) {
			return rest[1]
		}
		rest = rest[2:]
	}
	if len(rest) == 1 {
		return rest[0]
	}
	return types.NewError(types.ErrNA)
}

// CHOOSE(index, value1, ...) with a 1-based index.
func fnChoose(args []types.Value, _ *types.Context) types.Value {
	i, e := functions.IntArg(args[0])
	if e.IsError() {
		return e
	}
	if i < 1 || i >= len(args) {
		return types.NewError(types.ErrValue)
	}
	return args[i]
}
