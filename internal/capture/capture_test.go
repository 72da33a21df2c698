package capture

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yourorg/netsnap/internal/filter"
	"github.com/yourorg/netsnap/pkg/types"
)

func TestTransportRecordsRequestsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr := &Transport{}
	client := &http.Client{Transport: tr}
	if err := tr.Begin(); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{"/first", "/second?id=7"} {
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		_ = resp.Body.Close()
	}

	records, err := tr.End(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !strings.HasSuffix(records[0].URL, "/first") {
		t.Fatalf("order not preserved: %+v", records)
	}
	if records[1].Params["id"] != "7" {
		t.Fatalf("query params not captured: %+v", records[1])
	}
}

func TestTransportCapturesFormBody(t *testing.T) {
	var seenBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		seenBody = r.PostForm.Encode()
	}))
	defer srv.Close()

	tr := &Transport{}
	client := &http.Client{Transport: tr}
	_ = tr.Begin()

	resp, err := client.Post(srv.URL+"/submit", "application/x-www-form-urlencoded", strings.NewReader("user=alice&id=9"))
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()

	records, err := tr.End(nil)
	if err != nil {
		t.Fatal(err)
	}
	if records[0].Body != "user=alice&id=9" {
		t.Fatalf("body not captured: %q", records[0].Body)
	}
	if records[0].Params["user"] != "alice" || records[0].Params["id"] != "9" {
		t.Fatalf("form params not captured: %+v", records[0].Params)
	}
	// Body must still reach the server after being read for capture.
	if seenBody == "" {
		t.Fatalf("request body was consumed by capture")
	}
}

func TestTransportEndWithoutBegin(t *testing.T) {
	tr := &Transport{}
	if _, err := tr.End(nil); !errors.Is(err, ErrNotCapturing) {
		t.Fatalf("expected ErrNotCapturing, got %v", err)
	}
}

func TestTransportEndAppliesFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	tr := &Transport{}
	client := &http.Client{Transport: tr}
	_ = tr.Begin()
	for _, path := range []string{"/keep", "/drop"} {
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		_ = resp.Body.Close()
	}

	records, err := tr.End(filter.Func(func(r types.Record) bool {
		return !strings.HasSuffix(r.URL, "/drop")
	}))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || !strings.HasSuffix(records[0].URL, "/keep") {
		t.Fatalf("filter not applied: %+v", records)
	}
}

func TestBeginResetsEarlierWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	tr := &Transport{}
	client := &http.Client{Transport: tr}

	_ = tr.Begin()
	resp, _ := client.Get(srv.URL + "/old")
	_ = resp.Body.Close()
	_, _ = tr.End(nil)

	_ = tr.Begin()
	resp, _ = client.Get(srv.URL + "/new")
	_ = resp.Body.Close()
	records, err := tr.End(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || !strings.HasSuffix(records[0].URL, "/new") {
		t.Fatalf("old window leaked into new capture: %+v", records)
	}
}
