// Package compare implements the snapshot comparator: it checks an
// ordered sequence of live records against a stored reference, field by
// field, honoring pattern fields and optional record filters.
package compare

import (
	"fmt"
	"sort"

	"github.com/yourorg/netsnap/internal/filter"
	"github.com/yourorg/netsnap/internal/match"
	"github.com/yourorg/netsnap/pkg/types"
)

// Reason classifies why a record pair failed to match.
type Reason string

const (
	ReasonCountMismatch      Reason = "count_mismatch"
	ReasonFieldMissing       Reason = "field_missing"
	ReasonFieldValueMismatch Reason = "field_value_mismatch"
)

// Failure describes one mismatch: which record, which field, and why.
type Failure struct {
	Index    int    `json:"index"`
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Reason   Reason `json:"reason"`
}

func (f Failure) String() string {
	switch f.Reason {
	case ReasonCountMismatch:
		return fmt.Sprintf("request count mismatch: expected %s requests, got %s", f.Expected, f.Actual)
	case ReasonFieldMissing:
		return fmt.Sprintf("request %d: %s missing (expected %q)", f.Index, f.Field, f.Expected)
	default:
		return fmt.Sprintf("request %d: %s mismatch: expected %q, got %q", f.Index, f.Field, f.Expected, f.Actual)
	}
}

// Result is the outcome of one comparison. Failures are in sequence
// order; the first one is the canonical diagnostic reported to users.
type Result struct {
	Failures []Failure `json:"failures,omitempty"`
}

// OK reports whether the live snapshot matched the reference.
func (r Result) OK() bool { return len(r.Failures) == 0 }

// First returns the first failure in sequence order.
func (r Result) First() (Failure, bool) {
	if len(r.Failures) == 0 {
		return Failure{}, false
	}
	return r.Failures[0], true
}

func (r Result) String() string {
	if f, ok := r.First(); ok {
		return f.String()
	}
	return "snapshots match"
}

// Compare checks live against ref. A non-nil filter is applied to both
// sequences so the comparison stays meaningful when the reference was
// recorded with the same rules. The reference is a partial spec: keys
// present only in live records are never an error.
func Compare(ref, live types.Snapshot, f filter.Filter) Result {
	refRecords := filter.Apply(ref.Records, f)
	liveRecords := filter.Apply(live.Records, f)

	if len(refRecords) != len(liveRecords) {
		return Result{Failures: []Failure{{
			Field:    "count",
			Expected: fmt.Sprintf("%d", len(refRecords)),
			Actual:   fmt.Sprintf("%d", len(liveRecords)),
			Reason:   ReasonCountMismatch,
		}}}
	}

	var failures []Failure
	for i := range refRecords {
		failures = append(failures, compareRecord(i, refRecords[i], liveRecords[i])...)
	}
	return Result{Failures: failures}
}

func compareRecord(index int, ref, live types.Record) []Failure {
	var failures []Failure

	if ref.Method != live.Method {
		failures = append(failures, Failure{
			Index: index, Field: "method",
			Expected: ref.Method, Actual: live.Method,
			Reason: ReasonFieldValueMismatch,
		})
	}
	if !match.Matches(ref.URL, live.URL) {
		failures = append(failures, Failure{
			Index: index, Field: "url",
			Expected: ref.URL, Actual: live.URL,
			Reason: ReasonFieldValueMismatch,
		})
	}
	failures = append(failures, compareMap(index, "headers", ref.Headers, live.Headers)...)
	failures = append(failures, compareMap(index, "params", ref.Params, live.Params)...)
	if ref.Body != "" && !match.Matches(ref.Body, live.Body) {
		failures = append(failures, Failure{
			Index: index, Field: "body",
			Expected: ref.Body, Actual: live.Body,
			Reason: ReasonFieldValueMismatch,
		})
	}
	return failures
}

// compareMap checks every key the reference requires. Keys are visited
// in sorted order so repeated runs report the same first failure.
func compareMap(index int, category string, ref, live map[string]string) []Failure {
	if len(ref) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ref))
	for k := range ref {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var failures []Failure
	for _, k := range keys {
		expected := ref[k]
		actual, ok := live[k]
		if !ok {
			failures = append(failures, Failure{
				Index: index, Field: category + "." + k,
				Expected: expected,
				Reason:   ReasonFieldMissing,
			})
			continue
		}
		if !match.Matches(expected, actual) {
			failures = append(failures, Failure{
				Index: index, Field: category + "." + k,
				Expected: expected, Actual: actual,
				Reason: ReasonFieldValueMismatch,
			})
		}
	}
	return failures
}
