// Package e2e provides end-to-end tests over a corpus of class-name cases:
// generated Go packages are folded by the generator and compared with the
// run-time result of the same fragments.
package e2e

import (
	"fmt"
	"strings"

	"github.com/hyperjump/classnames/internal/models"
)

// Case is one list of literal fragments and the class string it must produce.
type Case struct {
	Name  string
	Parts []string
	Want  string
}

// Corpus holds the cases used by the end-to-end tests.
type Corpus struct {
	Cases      []Case
	TotalCases int
}

// BuildCorpus returns the documented scenarios followed by n-derived cases
// mixing class names with assorted whitespace.
func BuildCorpus() *Corpus {
	cases := []Case{
		{Name: "Basic", Parts: []string{"btn", "btn-primary"}, Want: "btn btn-primary"},
		{Name: "Layout", Parts: []string{"  header ", " main  ", "footer  "}, Want: "header main footer"},
		{Name: "Empties", Parts: []string{"", "active", "", "highlight"}, Want: "active highlight"},
		{Name: "AllBlank", Parts: []string{"", "   ", "\t\n"}, Want: ""},
		{Name: "Single", Parts: []string{"solo"}, Want: "solo"},
		{Name: "Interior", Parts: []string{"a \t\n b", "c"}, Want: "a b c"},
		{Name: "Unicode", Parts: []string{" größe　", "x"}, Want: "größe x"},
	}
	cases = append(cases, buildMixedCases(100)...)
	return &Corpus{Cases: cases, TotalCases: len(cases)}
}

func buildMixedCases(n int) []Case {
	words := []string{"btn", "card", "flex", "grid", "p-4", "m-2", "text-lg", "bg-blue-500", "hover:underline", "md:w-1/2", "-mt-2", "rounded"}
	spaces := []string{"", " ", "  ", "\t", "\n", " \r\n ", "\v", "\f"}
	out := make([]Case, 0, n)
	for i := 0; i < n; i++ {
		count := 1 + i%5
		parts := make([]string, 0, count)
		for j := 0; j < count; j++ {
			w := words[(i*7+j*3)%len(words)]
			lead := spaces[(i+j)%len(spaces)]
			trail := spaces[(i*3+j)%len(spaces)]
			part := lead + w + trail
			if (i+j)%6 == 0 {
				// two classes in one fragment
				part += spaces[(j+1)%len(spaces)] + " " + words[(i+j+1)%len(words)]
			}
			if (i*j)%9 == 4 {
				part = spaces[j%len(spaces)]
			}
			parts = append(parts, part)
		}
		out = append(out, Case{
			Name:  fmt.Sprintf("Mixed%03d", i),
			Parts: parts,
			Want:  oracle(parts),
		})
	}
	return out
}

// oracle computes the expected class string independently of the library.
func oracle(parts []string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// ToJoinRequests converts each case to the JSON request used by the HTTP API.
func (c *Corpus) ToJoinRequests() []models.JoinRequest {
	reqs := make([]models.JoinRequest, len(c.Cases))
	for i, tc := range c.Cases {
		frags := make([]models.Fragment, len(tc.Parts))
		for j, p := range tc.Parts {
			frags[j] = models.Text(p)
		}
		reqs[i] = models.JoinRequest{Fragments: frags}
	}
	return reqs
}
