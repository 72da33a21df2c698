// Package capture yields the ordered sequence of outgoing requests made
// between Begin and End. Two sources exist: an http.RoundTripper that
// records in-process traffic, and a HAR file reader for traffic captured
// outside the process.
package capture

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/yourorg/netsnap/internal/filter"
	"github.com/yourorg/netsnap/pkg/types"
)

// ErrNotCapturing is returned by End when Begin was never called.
var ErrNotCapturing = errors.New("capture not started")

// Source delivers captured records in issue order.
type Source interface {
	Begin() error
	End(f filter.Filter) ([]types.Record, error)
}

// Transport records every request passing through it while capturing is
// active, then delegates to the underlying round tripper. Intended for
// single-goroutine test sessions; concurrent requests need one Transport
// per session.
type Transport struct {
	// Base is the underlying round tripper. http.DefaultTransport
	// when nil.
	Base http.RoundTripper

	active  bool
	records []types.Record
}

// Begin starts a new capture window, discarding earlier records.
func (t *Transport) Begin() error {
	t.active = true
	t.records = t.records[:0]
	return nil
}

// End stops capturing and returns the filtered records.
func (t *Transport) End(f filter.Filter) ([]types.Record, error) {
	if !t.active {
		return nil, ErrNotCapturing
	}
	t.active = false
	out := filter.Apply(t.records, f)
	t.records = nil
	return out, nil
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.active {
		rec, err := FromRequest(req)
		if err != nil {
			return nil, err
		}
		t.records = append(t.records, rec)
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// FromRequest builds a record from an outgoing request. The body is read
// and restored so the request stays usable.
func FromRequest(req *http.Request) (types.Record, error) {
	rec := types.Record{
		Method: strings.ToUpper(req.Method),
		URL:    req.URL.String(),
	}
	if len(req.Header) > 0 {
		rec.Headers = make(map[string]string, len(req.Header))
		for k := range req.Header {
			rec.Headers[k] = req.Header.Get(k)
		}
	}
	rec.Params = flattenQuery(req.URL.Query())

	if req.Body != nil && req.Body != http.NoBody {
		data, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return types.Record{}, err
		}
		req.Body = io.NopCloser(strings.NewReader(string(data)))
		rec.Body = string(data)

		if isFormContentType(req.Header.Get("Content-Type")) {
			if vals, err := url.ParseQuery(string(data)); err == nil {
				rec.Params = mergeParams(rec.Params, flattenQuery(vals))
			}
		}
	}
	return rec, nil
}

func flattenQuery(vals url.Values) map[string]string {
	if len(vals) == 0 {
		return nil
	}
	out := make(map[string]string, len(vals))
	for k, vs := range vals {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

func mergeParams(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
	return dst
}

func isFormContentType(ct string) bool {
	base := strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	return base == "application/x-www-form-urlencoded"
}
