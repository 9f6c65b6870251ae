package classnames

import "strings"

// Piece is one resolved fragment. Text is only meaningful when Present.
type Piece struct {
	Text    string
	Present bool
}

// Filter keeps the text of every present, non-empty piece, in order.
// Pieces are expected to be normalized already.
func Filter(pieces []Piece) []string {
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if !p.Present || p.Text == "" {
			continue
		}
		out = append(out, p.Text)
	}
	return out
}

// Join concatenates classes with exactly one space between neighbours.
// Joining nothing yields "" and a single class is returned unchanged.
func Join(classes []string) string {
	switch len(classes) {
	case 0:
		return ""
	case 1:
		return classes[0]
	}

	n := len(classes) - 1
	for _, c := range classes {
		n += len(c)
	}

	var b strings.Builder
	b.Grow(n)
	b.WriteString(classes[0])
	for _, c := range classes[1:] {
		b.WriteByte(' ')
		b.WriteString(c)
	}
	return b.String()
}

// Concat is the static entry point. It normalizes every part, drops the
// blank ones and joins the rest:
//
//	Concat("  header ", " main  ", "footer  ") == "header main footer"
//
// When all arguments are constants the call can be folded into a const by
// `classnames generate` (see the //classnames:const directive).
func Concat(parts ...string) string {
	pieces := make([]Piece, len(parts))
	for i, p := range parts {
		pieces[i] = Piece{Text: Normalize(p), Present: true}
	}
	return Join(Filter(pieces))
}

// Build is the dynamic entry point. Each part is converted with From, so it
// may be a string, a *string, a Fragment (When, Choose, Maybe, ...), a slice
// or a func returning one of those:
//
//	Build("btn", When(active, "active"), When(small, "btn-sm")) // "btn active"
//
// Build never fails; absent and false fragments are simply left out.
func Build(parts ...any) string {
	return Join(Resolve(parts...))
}

// Resolve runs the collection, normalization and filtering steps of Build and
// returns the surviving classes in order.
func Resolve(parts ...any) []string {
	pieces := make([]Piece, len(parts))
	for i, p := range parts {
		text, ok := From(p).Resolve()
		pieces[i] = Piece{Text: Normalize(text), Present: ok}
	}
	return Filter(pieces)
}
