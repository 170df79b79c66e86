package builtin

import (
	"github.com/sandrolain/xlformula/pkg/functions"
	"github.com/sandrolain/xlformula/pkg/types"
)

// information returns the inspectors. They all see raw Error arguments.
func (c *config) information() []functions.Def {
	return []functions.Def{
		is("ISNUMBER", types.Value.IsNumber),
		is("ISTEXT", types.Value.IsText),
		is("ISNONTEXT", func(v types.Value) bool { return !v.IsText() }),
		is("ISLOGICAL", types.Value.IsBoolean),
		is("ISBLANK", types.Value.IsEmpty),
		is("ISERROR", types.Value.IsError),
		is("ISERR", func(v types.Value) bool { return v.IsError() && v.Err() != types.ErrNA }),
		is("ISNA", func(v types.Value) bool { return v.Err() == types.ErrNA }),
		def("NA", CategoryInformation, 0, 0, constant(types.NewError(types.ErrNA))),
		def("N", CategoryInformation, 1, 1, c.fnN),
	}
}

func is(name string, test func(types.Value) bool) functions.Def {
	d := def(name, CategoryInformation, 1, 1, func(args []types.Value, _ *types.Context) types.Value {
		return types.NewBoolean(test(args[0]))
	})
	d.PassErrors = true
	return d
}

// N converts numbers and booleans to a number and dates to their serial
// day number; anything else is 0.
func (c *config) fnN(args []types.Value, _ *types.Context) types.Value {
	switch v := args[0]; {
	case v.IsNumber():
		return v
	case v.IsDate():
		return number(c.toSerial(v.Time()))
	case v.IsBoolean():
		n, _ := v.ToNumber()
		return types.NewNumber(n)
	}
	return types.NewNumber(0)
}
