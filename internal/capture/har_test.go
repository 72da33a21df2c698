package capture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yourorg/netsnap/internal/filter"
	"github.com/yourorg/netsnap/pkg/types"
)

const sampleHAR = `{
  "log": {
    "entries": [
      {
        "startedDateTime": "2024-05-01T10:00:02.000Z",
        "request": {
          "method": "post",
          "url": "http://a.test/login",
          "headers": [{"name": "Content-Type", "value": "application/x-www-form-urlencoded"}],
          "postData": {
            "mimeType": "application/x-www-form-urlencoded",
            "text": "user=alice&password=s3cret"
          }
        }
      },
      {
        "startedDateTime": "2024-05-01T10:00:01.000Z",
        "request": {
          "method": "GET",
          "url": "http://a.test/home?tab=main",
          "headers": [{"name": "Accept", "value": "text/html"}]
        }
      }
    ]
  }
}`

func writeHAR(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.har")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseHAROrdersByStartTime(t *testing.T) {
	records, err := ParseHAR(writeHAR(t, sampleHAR))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Method != "GET" || records[1].Method != "POST" {
		t.Fatalf("records not ordered by startedDateTime: %+v", records)
	}
	if records[0].Params["tab"] != "main" {
		t.Fatalf("query params not extracted: %+v", records[0])
	}
	if records[1].Body != "user=alice&password=s3cret" {
		t.Fatalf("post body not extracted: %q", records[1].Body)
	}
	if records[1].Params["user"] != "alice" {
		t.Fatalf("form params not extracted: %+v", records[1].Params)
	}
	if records[1].Headers["Content-Type"] != "application/x-www-form-urlencoded" {
		t.Fatalf("headers not extracted: %+v", records[1].Headers)
	}
}

func TestHARSourceAppliesFilter(t *testing.T) {
	src := &HARSource{Path: writeHAR(t, sampleHAR)}
	if err := src.Begin(); err != nil {
		t.Fatal(err)
	}
	records, err := src.End(filter.Func(func(r types.Record) bool {
		return r.Method == "GET"
	}))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Method != "GET" {
		t.Fatalf("filter not applied: %+v", records)
	}
}

func TestParseHARRejectsBadJSON(t *testing.T) {
	if _, err := ParseHAR(writeHAR(t, "{oops")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParseHARBase64Body(t *testing.T) {
	har := `{
  "log": {
    "entries": [
      {
        "startedDateTime": "2024-05-01T10:00:00.000Z",
        "request": {
          "method": "POST",
          "url": "http://a.test/upload",
          "headers": [],
          "postData": {"mimeType": "text/plain", "text": "aGVsbG8=", "encoding": "base64"}
        }
      }
    ]
  }
}`
	records, err := ParseHAR(writeHAR(t, har))
	if err != nil {
		t.Fatal(err)
	}
	if records[0].Body != "hello" {
		t.Fatalf("base64 body not decoded: %q", records[0].Body)
	}
}
