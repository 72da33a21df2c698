package types

// Record is one captured outgoing request. Records are treated as
// immutable once captured; code that needs a modified copy must clone.
type Record struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	if r.Headers != nil {
		out.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			out.Headers[k] = v
		}
	}
	if r.Params != nil {
		out.Params = make(map[string]string, len(r.Params))
		for k, v := range r.Params {
			out.Params[k] = v
		}
	}
	return out
}

// Snapshot is a named, ordered sequence of records. Order corresponds to
// the chronological order the requests were issued.
type Snapshot struct {
	Name    string   `json:"name"`
	Records []Record `json:"records"`
}

// Len returns the number of records in the snapshot.
func (s Snapshot) Len() int { return len(s.Records) }
