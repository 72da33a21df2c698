// Package filter excludes captured records from persistence and
// comparison based on configurable rules.
package filter

import (
	"strings"

	"github.com/yourorg/netsnap/internal/config"
	"github.com/yourorg/netsnap/pkg/types"
)

// Filter decides whether a record participates in recording/comparison.
type Filter interface {
	Accept(types.Record) bool
}

// Func adapts a plain Accept into a Filter.
type Func func(types.Record) bool

// Accept implements Filter.
func (f Func) Accept(r types.Record) bool { return f(r) }

// URLFilter excludes records whose URL starts with BaseURL. An empty
// BaseURL accepts everything.
type URLFilter struct {
	BaseURL string
}

// Accept implements Filter.
func (f URLFilter) Accept(r types.Record) bool {
	if f.BaseURL == "" {
		return true
	}
	return !strings.HasPrefix(r.URL, f.BaseURL)
}

// All combines filters; a record must be accepted by every one.
type All []Filter

// Accept implements Filter.
func (fs All) Accept(r types.Record) bool {
	for _, f := range fs {
		if f != nil && !f.Accept(r) {
			return false
		}
	}
	return true
}

// FromConfig builds a Filter from config ignore rules. Returns nil when
// no rules are configured.
func FromConfig(cfg config.FilterConfig) Filter {
	var fs All
	for _, prefix := range cfg.IgnoreURLPrefixes {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" {
			continue
		}
		fs = append(fs, URLFilter{BaseURL: prefix})
	}
	if len(cfg.IgnoreMethods) > 0 {
		ignored := make(map[string]struct{}, len(cfg.IgnoreMethods))
		for _, m := range cfg.IgnoreMethods {
			m = strings.ToUpper(strings.TrimSpace(m))
			if m == "" {
				continue
			}
			ignored[m] = struct{}{}
		}
		fs = append(fs, Func(func(r types.Record) bool {
			_, skip := ignored[strings.ToUpper(r.Method)]
			return !skip
		}))
	}
	if len(fs) == 0 {
		return nil
	}
	return fs
}

// Apply returns the records accepted by f, preserving order. A nil
// filter accepts everything.
func Apply(records []types.Record, f Filter) []types.Record {
	if f == nil {
		return records
	}
	out := make([]types.Record, 0, len(records))
	for _, r := range records {
		if f.Accept(r) {
			out = append(out, r)
		}
	}
	return out
}
