// Package functions defines the calling contract between the evaluator
// and the function library.
//
// Every function, built-in or user supplied, has the same shape: it
// receives already-evaluated arguments and a read-only variable context
// and returns a single Value. Failures are Error values, never panics or
// Go errors.
//
// # Example
//
//	reg := functions.NewRegistry()
//	reg.Register("DOUBLE", func(args []types.Value, _ *types.Context) types.Value {
//	    n, err := args[0].ToNumber()
//	    if err != nil {
//	        return types.NewError(types.ErrValue)
//	    }
//	    return types.NewNumber(n * 2)
//	})
package functions

import (
	"maps"
	"slices"

	"github.com/sandrolain/xlformula/pkg/types"
)

// Func is the signature shared by all formula functions.
// The context must be treated as read-only.
type Func func(args []types.Value, ctx *types.Context) types.Value

// Def describes a registered function.
type Def struct {
	// Name is matched case-sensitively against the identifier in the formula.
	Name string
	// MinArgs and MaxArgs bound the argument count. MaxArgs < 0 means unlimited.
	MinArgs int
	MaxArgs int
	// PassErrors hands Error arguments to Fn instead of returning the
	// first one. Only error-inspecting functions such as IFERROR set it.
	PassErrors bool
	// Category groups functions for listings ("math", "text", ...).
	Category string
	// Fn is the implementation.
	Fn Func
}

// Call applies the propagation protocol and invokes Fn: the first Error
// argument is returned verbatim unless PassErrors is set, then the
// argument count is checked.
func (d *Def) Call(args []types.Value, ctx *types.Context) types.Value {
	if !d.PassErrors {
		if e, ok := FirstError(args); ok {
			return e
		}
	}
	if len(args) < d.MinArgs || (d.MaxArgs >= 0 && len(args) > d.MaxArgs) {
		return types.NewError(types.ErrValue)
	}
	return d.Fn(args, ctx)
}

// Registry maps function names to definitions.
//
// A Registry is not synchronised. Share one across goroutines only when
// no registration happens concurrently with evaluation.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register adds fn under name with no arity bounds. An existing
// function with the same name is replaced.
func (r *Registry) Register(name string, fn Func) {
	r.RegisterDef(Def{Name: name, MaxArgs: -1, Fn: fn})
}

// RegisterDef adds a full definition, replacing any function of the same name.
func (r *Registry) RegisterDef(def Def) {
	if r.defs == nil {
		r.defs = make(map[string]*Def)
	}
	d := def
	r.defs[def.Name] = &d
}

// Lookup returns the callable registered under name. The callable
// enforces error propagation and arity as described on Def.Call.
func (r *Registry) Lookup(name string) (Func, bool) {
	d, ok := r.Def(name)
	if !ok {
		return nil, false
	}
	return d.Call, true
}

// Def returns the definition registered under name.
func (r *Registry) Def(name string) (*Def, bool) {
	if r == nil {
		return nil, false
	}
	d, ok := r.defs[name]
	return d, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Def(name)
	return ok
}

// Unregister removes name. It is a no-op for unknown names.
func (r *Registry) Unregister(name string) {
	delete(r.defs, name)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.defs))
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.defs)
}

// Clone returns a registry with the same definitions. Registering into
// the clone does not affect r.
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	if r == nil {
		return out
	}
	for name, d := range r.defs {
		cp := *d
		out.defs[name] = &cp
	}
	return out
}
