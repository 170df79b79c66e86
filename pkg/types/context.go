package types

import (
	"fmt"
	"slices"
	"strings"
)

// Context is an ordered mapping from variable name to Value.
//
// Names are case-sensitive. Looking up an unknown name yields Empty.
// A Context is owned by its caller and is never modified by evaluation.
// It is not safe for concurrent mutation.
type Context struct {
	names []string
	vars  map[string]Value
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{vars: make(map[string]Value)}
}

// Clone returns an independent copy of c. A nil receiver yields an
// empty context.
func (c *Context) Clone() *Context {
	out := NewContext()
	if c == nil {
		return out
	}
	out.names = slices.Clone(c.names)
	for k, v := range c.vars {
		out.vars[k] = v
	}
	return out
}

// Set binds name to v, replacing any previous binding in place.
func (c *Context) Set(name string, v Value) {
	if c.vars == nil {
		c.vars = make(map[string]Value)
	}
	if _, ok := c.vars[name]; !ok {
		c.names = append(c.names, name)
	}
	c.vars[name] = v
}

// Get returns the value bound to name, or Empty.
func (c *Context) Get(name string) Value {
	if c == nil {
		return Empty()
	}
	return c.vars[name]
}

// Has reports whether name is bound.
func (c *Context) Has(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.vars[name]
	return ok
}

// Remove deletes the binding for name, if any.
func (c *Context) Remove(name string) {
	if c == nil {
		return
	}
	if _, ok := c.vars[name]; !ok {
		return
	}
	delete(c.vars, name)
	c.names = slices.DeleteFunc(c.names, func(n string) bool { return n == name })
}

// Names returns the bound names in insertion order.
func (c *Context) Names() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.names)
}

// Len returns the number of bindings.
func (c *Context) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Clear removes every binding.
func (c *Context) Clear() {
	if c == nil {
		return
	}
	c.names = nil
	c.vars = make(map[string]Value)
}

// Range calls fn for each binding in insertion order until fn returns false.
func (c *Context) Range(fn func(name string, v Value) bool) {
	if c == nil {
		return
	}
	for _, n := range c.names {
		if !fn(n, c.vars[n]) {
			return
		}
	}
}

// String lists the bindings, mainly for debug logging.
func (c *Context) String() string {
	var b strings.Builder
	b.WriteString("Context{")
	c.Range(func(name string, v Value) bool {
		if b.Len() > len("Context{") {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%#v", name, v)
		return true
	})
	b.WriteString("}")
	return b.String()
}
