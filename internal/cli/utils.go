// Package cli provides CLI output utilities for classnames.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/hyperjump/classnames/internal/generate"
	"github.com/hyperjump/classnames/internal/models"
	"go.uber.org/multierr"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a -output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("invalid output format %q (want text or json)", s)
}

// WriteJoinResult writes a join result to w. Text output is the bare class
// string so it can be captured by shell scripts.
func WriteJoinResult(w io.Writer, resp *models.JoinResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	_, err := fmt.Fprintln(w, resp.Class)
	return err
}

// WriteGenerateResults writes one line per generated package, followed by
// its constants, or a JSON array of results.
func WriteGenerateResults(w io.Writer, results []*generate.Result, format OutputFormat) error {
	if format == OutputJSON {
		if results == nil {
			results = []*generate.Result{}
		}
		return writeJSON(w, results)
	}
	for _, res := range results {
		file := filepath.Base(res.Output)
		switch {
		case res.Removed:
			fmt.Fprintf(w, "%s: removed stale %s\n", res.Package, file)
			continue
		case len(res.Consts) == 0:
			fmt.Fprintf(w, "%s: no directives\n", res.Package)
			continue
		case res.Written:
			fmt.Fprintf(w, "%s: wrote %s (%d %s)\n", res.Package, file, len(res.Consts), plural(len(res.Consts), "const"))
		default:
			fmt.Fprintf(w, "%s: %s up to date\n", res.Package, file)
		}
		for _, c := range res.Consts {
			fmt.Fprintf(w, "  %s = %s\n", c.Name, strconv.Quote(c.Value))
		}
	}
	return nil
}

// WriteErrors writes every error combined in err on its own line, so each
// generator diagnostic reads as file:line:col: message.
func WriteErrors(w io.Writer, err error) {
	for _, e := range multierr.Errors(err) {
		fmt.Fprintln(w, e)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
