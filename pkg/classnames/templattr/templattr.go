// Package templattr builds templ attribute maps from classnames fragments.
//
// Importing the package teaches classnames the templ class forms, at any
// nesting depth: templ.KV("active", isActive) is a conditional fragment and
// a templ.CSSClass contributes its class name.
package templattr

import (
	"github.com/a-h/templ"
	"github.com/hyperjump/classnames/pkg/classnames"
)

// ClassKey is the attribute the helpers write.
const ClassKey = "class"

// Attrs returns attributes whose "class" is the Build of parts. The key is
// left out when every part is absent or blank.
func Attrs(parts ...any) templ.Attributes {
	attrs := templ.Attributes{}
	if class := Class(parts...); class != "" {
		attrs[ClassKey] = class
	}
	return attrs
}

func init() {
	classnames.RegisterConverter(fragment)
}

// Class resolves parts to a class string.
func Class(parts ...any) string {
	return classnames.Build(parts...)
}

// Merge returns a copy of attrs with parts appended to its class. An existing
// class value comes first; attrs itself is not modified.
func Merge(attrs templ.Attributes, parts ...any) templ.Attributes {
	out := make(templ.Attributes, len(attrs)+1)
	for k, v := range attrs {
		out[k] = v
	}
	all := make([]any, 0, len(parts)+1)
	if current, ok := attrs[ClassKey]; ok {
		all = append(all, current)
	}
	all = append(all, parts...)
	if class := Class(all...); class != "" {
		out[ClassKey] = class
	} else {
		delete(out, ClassKey)
	}
	return out
}

// With returns an option that appends parts to the "class" attribute in
// place, for constructors taking ...func(*templ.Attributes).
func With(parts ...any) func(*templ.Attributes) {
	return func(attrs *templ.Attributes) {
		if attrs == nil {
			return
		}
		if *attrs == nil {
			*attrs = templ.Attributes{}
		}
		*attrs = Merge(*attrs, parts...)
	}
}

// fragment converts the templ class forms.
func fragment(p any) (classnames.Fragment, bool) {
	switch v := p.(type) {
	case templ.KeyValue[string, bool]:
		return classnames.When(v.Value, v.Key), true
	case []templ.KeyValue[string, bool]:
		g := make(classnames.Group, len(v))
		for i, kv := range v {
			g[i] = classnames.When(kv.Value, kv.Key)
		}
		return g, true
	case templ.CSSClass:
		return classnames.Literal(v.ClassName()), true
	}
	return nil, false
}
