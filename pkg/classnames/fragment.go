package classnames

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Fragment is a candidate contributor to a class string. Resolve returns the
// raw (not yet normalized) text and whether the fragment is present at all.
type Fragment interface {
	Resolve() (string, bool)
}

// Literal is plain text; it is always present.
type Literal string

// Resolve implements Fragment.
func (l Literal) Resolve() (string, bool) { return string(l), true }

// Conditional is present with Then's value only while Cond holds.
type Conditional struct {
	Cond bool
	Then Fragment
}

// Resolve implements Fragment.
func (c Conditional) Resolve() (string, bool) {
	if !c.Cond || c.Then == nil {
		return "", false
	}
	return c.Then.Resolve()
}

// Ternary picks Then or Else depending on Cond. With literal branches it is
// never absent.
type Ternary struct {
	Cond bool
	Then Fragment
	Else Fragment
}

// Resolve implements Fragment.
func (t Ternary) Resolve() (string, bool) {
	branch := t.Else
	if t.Cond {
		branch = t.Then
	}
	if branch == nil {
		return "", false
	}
	return branch.Resolve()
}

// Optional is present iff Value is non-nil.
type Optional struct {
	Value *string
}

// Resolve implements Fragment.
func (o Optional) Resolve() (string, bool) {
	if o.Value == nil {
		return "", false
	}
	return *o.Value, true
}

// Computed defers to a branch evaluated at resolve time. Whatever the branch
// yields, including absence, is passed through.
type Computed func() Fragment

// Resolve implements Fragment.
func (c Computed) Resolve() (string, bool) {
	if c == nil {
		return "", false
	}
	f := c()
	if f == nil {
		return "", false
	}
	return f.Resolve()
}

// Group is a nested fragment list. It resolves to the Build of its items.
type Group []any

// Resolve implements Fragment.
func (g Group) Resolve() (string, bool) {
	return Build(g...), true
}

type absent struct{}

func (absent) Resolve() (string, bool) { return "", false }

// From converts a call-site value into a Fragment:
//
//   - nil and bare bools are absent (a bool only makes sense as a guard)
//   - string is a Literal, *string an Optional
//   - []string and []any become a Group
//   - func() Fragment becomes Computed, func() string a Literal of its result
//   - values claimed by a registered Converter use its Fragment
//   - fmt.Stringer uses String(), anything else fmt.Sprint
func From(v any) Fragment {
	switch x := v.(type) {
	case nil:
		return absent{}
	case Fragment:
		return x
	case string:
		return Literal(x)
	case *string:
		return Optional{Value: x}
	case bool:
		return absent{}
	case []string:
		g := make(Group, len(x))
		for i, s := range x {
			g[i] = s
		}
		return g
	case []any:
		return Group(x)
	case []Fragment:
		g := make(Group, len(x))
		for i, f := range x {
			g[i] = f
		}
		return g
	case func() Fragment:
		return Computed(x)
	case func() string:
		if x == nil {
			return absent{}
		}
		return Literal(x())
	default:
		if f, ok := convert(x); ok {
			return f
		}
		if s, ok := x.(fmt.Stringer); ok {
			return Literal(s.String())
		}
		return Literal(fmt.Sprint(x))
	}
}

// Converter turns a value From does not know into a Fragment. It reports
// false for values it does not handle.
type Converter func(v any) (Fragment, bool)

var (
	convertersMu sync.Mutex
	converters   atomic.Pointer[[]Converter]
)

// RegisterConverter makes From, and with it Build and every helper, accept
// the values fn handles, at any nesting depth. Converters run in registration
// order; it is meant to be called from init by adapter packages.
func RegisterConverter(fn Converter) {
	if fn == nil {
		return
	}
	convertersMu.Lock()
	defer convertersMu.Unlock()
	var next []Converter
	if cur := converters.Load(); cur != nil {
		next = append(next, *cur...)
	}
	next = append(next, fn)
	converters.Store(&next)
}

func convert(v any) (Fragment, bool) {
	list := converters.Load()
	if list == nil {
		return nil, false
	}
	for _, fn := range *list {
		if f, ok := fn(v); ok && f != nil {
			return f, true
		}
	}
	return nil, false
}

// When includes v only if cond is true.
func When(cond bool, v any) Fragment {
	return Conditional{Cond: cond, Then: From(v)}
}

// Choose selects a when cond is true and b otherwise.
func Choose(cond bool, a, b any) Fragment {
	return Ternary{Cond: cond, Then: From(a), Else: From(b)}
}

// Maybe unwraps an optional value: nil is absent, anything else is present.
func Maybe[T ~string](v *T) Fragment {
	if v == nil {
		return absent{}
	}
	s := string(*v)
	return Optional{Value: &s}
}
