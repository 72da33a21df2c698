package capture

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/yourorg/netsnap/internal/filter"
	"github.com/yourorg/netsnap/pkg/types"
)

// HARSource reads records from a HAR file produced by a browser or
// proxy. Begin is a no-op; End parses the file.
type HARSource struct {
	Path string
}

func (s *HARSource) Begin() error { return nil }

func (s *HARSource) End(f filter.Filter) ([]types.Record, error) {
	records, err := ParseHAR(s.Path)
	if err != nil {
		return nil, err
	}
	return filter.Apply(records, f), nil
}

type harFile struct {
	Log struct {
		Entries []harEntry `json:"entries"`
	} `json:"log"`
}

type harEntry struct {
	StartedDateTime string `json:"startedDateTime"`
	Request         struct {
		Method  string `json:"method"`
		URL     string `json:"url"`
		Headers []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
		PostData struct {
			MimeType string `json:"mimeType"`
			Text     string `json:"text"`
			Encoding string `json:"encoding"`
		} `json:"postData"`
	} `json:"request"`
}

// ParseHAR extracts the request side of each HAR entry, ordered by start
// time.
func ParseHAR(filePath string) ([]types.Record, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var hf harFile
	if err := json.Unmarshal(data, &hf); err != nil {
		return nil, fmt.Errorf("parse har: %w", err)
	}

	type timed struct {
		at  time.Time
		rec types.Record
	}
	entries := make([]timed, 0, len(hf.Log.Entries))
	for _, e := range hf.Log.Entries {
		ts, err := time.Parse(time.RFC3339Nano, e.StartedDateTime)
		if err != nil {
			return nil, fmt.Errorf("parse startedDateTime: %w", err)
		}
		u, err := url.Parse(e.Request.URL)
		if err != nil {
			return nil, fmt.Errorf("parse request url: %w", err)
		}

		rec := types.Record{
			Method: strings.ToUpper(e.Request.Method),
			URL:    e.Request.URL,
			Params: flattenQuery(u.Query()),
		}
		if len(e.Request.Headers) > 0 {
			rec.Headers = make(map[string]string, len(e.Request.Headers))
			for _, h := range e.Request.Headers {
				rec.Headers[h.Name] = h.Value
			}
		}
		rec.Body = decodeHARBody(e.Request.PostData.Text, e.Request.PostData.Encoding)
		if rec.Body != "" && isFormContentType(e.Request.PostData.MimeType) {
			if vals, err := url.ParseQuery(rec.Body); err == nil {
				rec.Params = mergeParams(rec.Params, flattenQuery(vals))
			}
		}
		entries = append(entries, timed{at: ts, rec: rec})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].at.Before(entries[j].at)
	})
	records := make([]types.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.rec)
	}
	return records, nil
}

func decodeHARBody(text, encoding string) string {
	if text == "" {
		return ""
	}
	if strings.EqualFold(encoding, "base64") {
		decoded, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return ""
		}
		return string(decoded)
	}
	return text
}
