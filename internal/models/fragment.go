// Package models defines the JSON wire types shared by the HTTP API and the CLI.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hyperjump/classnames/internal/suggest"
	"github.com/hyperjump/classnames/pkg/classnames"
)

// Fragment kinds accepted on the wire.
const (
	KindText   = "text"
	KindWhen   = "when"
	KindChoose = "choose"
	KindMaybe  = "maybe"
	KindGroup  = "group"
)

var kinds = []string{KindText, KindWhen, KindChoose, KindMaybe, KindGroup}

// MaxDepth bounds how deeply fragments may nest.
const MaxDepth = 32

// Fragment is the JSON form of a classnames fragment. A plain JSON string
// decodes to a text fragment; objects select a variant with "kind".
type Fragment struct {
	Kind  string     `json:"kind"`
	Text  *string    `json:"text,omitempty"`
	Cond  *bool      `json:"cond,omitempty"`
	Then  *Fragment  `json:"then,omitempty"`
	Else  *Fragment  `json:"else,omitempty"`
	Items []Fragment `json:"items,omitempty"`
}

// Text returns a text fragment.
func Text(s string) Fragment {
	return Fragment{Kind: KindText, Text: &s}
}

// UnmarshalJSON accepts either a string or an object.
func (f *Fragment) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Text(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*f = Fragment{Kind: KindMaybe}
		return nil
	}
	type plain Fragment
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("fragment must be a string or an object: %w", err)
	}
	*f = Fragment(p)
	return nil
}

// Validate checks that the fragment and everything nested in it has the
// fields its kind requires.
func (f *Fragment) Validate() error {
	return f.validate(0)
}

func (f *Fragment) validate(depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("fragments nested deeper than %d", MaxDepth)
	}
	switch f.Kind {
	case KindText:
		if f.Text == nil {
			return fmt.Errorf("text fragment requires \"text\"")
		}
	case KindMaybe:
		// text may be null
	case KindWhen:
		if f.Cond == nil {
			return fmt.Errorf("when fragment requires \"cond\"")
		}
		if f.Text != nil && f.Items != nil {
			return fmt.Errorf("when fragment takes \"text\" or \"items\", not both")
		}
		if f.Text == nil && f.Items == nil {
			return fmt.Errorf("when fragment requires \"text\" or \"items\"")
		}
		return validateItems(f.Items, depth)
	case KindChoose:
		if f.Cond == nil {
			return fmt.Errorf("choose fragment requires \"cond\"")
		}
		if f.Then == nil || f.Else == nil {
			return fmt.Errorf("choose fragment requires \"then\" and \"else\"")
		}
		if err := f.Then.validate(depth + 1); err != nil {
			return fmt.Errorf("then: %w", err)
		}
		if err := f.Else.validate(depth + 1); err != nil {
			return fmt.Errorf("else: %w", err)
		}
	case KindGroup:
		return validateItems(f.Items, depth)
	case "":
		return fmt.Errorf("fragment requires \"kind\"")
	default:
		return fmt.Errorf("unknown fragment kind %q%s", f.Kind, suggest.Hint(f.Kind, kinds))
	}
	return nil
}

func validateItems(items []Fragment, depth int) error {
	for i := range items {
		if err := items[i].validate(depth + 1); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// ToFragment converts a validated wire fragment into a library fragment.
func (f *Fragment) ToFragment() classnames.Fragment {
	switch f.Kind {
	case KindText:
		return classnames.Literal(deref(f.Text))
	case KindMaybe:
		return classnames.Maybe(f.Text)
	case KindWhen:
		if f.Text != nil {
			return classnames.When(*f.Cond, *f.Text)
		}
		return classnames.When(*f.Cond, toGroup(f.Items))
	case KindChoose:
		return classnames.Choose(*f.Cond, f.Then.ToFragment(), f.Else.ToFragment())
	case KindGroup:
		return toGroup(f.Items)
	}
	return classnames.Maybe[string](nil)
}

func toGroup(items []Fragment) classnames.Group {
	g := make(classnames.Group, len(items))
	for i := range items {
		g[i] = items[i].ToFragment()
	}
	return g
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
