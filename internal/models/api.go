package models

import (
	"fmt"

	"github.com/hyperjump/classnames/pkg/classnames"
)

// MaxFragments caps the number of top-level fragments in one request.
const MaxFragments = 1000

// JoinRequest asks for the class string of an ordered fragment list.
type JoinRequest struct {
	Fragments []Fragment `json:"fragments"`
}

// Validate checks every fragment of the request.
func (r *JoinRequest) Validate() error {
	if len(r.Fragments) > MaxFragments {
		return fmt.Errorf("too many fragments: %d (max %d)", len(r.Fragments), MaxFragments)
	}
	for i := range r.Fragments {
		if err := r.Fragments[i].Validate(); err != nil {
			return fmt.Errorf("fragment %d: %w", i, err)
		}
	}
	return nil
}

// Evaluate validates the request and resolves it with classnames.Build.
// Kept counts the top-level fragments that contributed text; Dropped the
// ones that were absent or blank.
func (r *JoinRequest) Evaluate() (*JoinResponse, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	parts := make([]any, len(r.Fragments))
	resp := &JoinResponse{}
	for i := range r.Fragments {
		f := r.Fragments[i].ToFragment()
		parts[i] = f
		if text, ok := f.Resolve(); ok && classnames.Normalize(text) != "" {
			resp.Kept++
		} else {
			resp.Dropped++
		}
	}
	resp.Class = classnames.Build(parts...)
	return resp, nil
}

// JoinResponse is the result of a join.
type JoinResponse struct {
	Class   string `json:"class"`
	Kept    int    `json:"kept"`
	Dropped int    `json:"dropped"`
}

// NormalizeRequest asks for one string to be normalized.
type NormalizeRequest struct {
	Text string `json:"text"`
}

// NormalizeResponse is the normalized form.
type NormalizeResponse struct {
	Class string `json:"class"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
