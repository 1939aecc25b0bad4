package httptest

import (
	"errors"
	"io/ioutil"
	"net/http"
	"testing"
)

func get(t *testing.T, ht *HttpTest, u, rg string) (*http.Response, []byte, error) {
	t.Helper()
	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rg != "" {
		req.Header.Set("Range", rg)
	}
	resp, err := ht.RoundTrip(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, err := ioutil.ReadAll(resp.Body)
	return resp, b, err
}

func TestRoundTrip(t *testing.T) {
	const u = "http://example.com/a.mp3"
	ht := New(WithFile(u, []byte("0123456789")))

	tests := []struct {
		name   string
		url    string
		rg     string
		status int
		body   string
	}{
		{"whole", u, "", 200, "0123456789"},
		{"range", u, "bytes=4-", 206, "456789"},
		{"past the end", u, "bytes=10-", 416, ""},
		{"bad range", u, "bytes=1-2", 400, ""},
		{"missing", "http://example.com/none.mp3", "", 404, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, b, err := get(t, ht, tt.url, tt.rg)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("Expecting status %d, got %d", tt.status, resp.StatusCode)
			}
			if string(b) != tt.body {
				t.Errorf("Expecting %q, got %q", tt.body, b)
			}
		})
	}
	if got := len(ht.Requests()); got != len(tests) {
		t.Errorf("Expecting %d recorded requests, got %d", len(tests), got)
	}
}

func TestBrokenTransfers(t *testing.T) {
	const u = "http://example.com/a.mp3"
	ht := New(WithFile(u, []byte("0123456789")), WithBrokenTransfers(2, 3))

	for i, want := range []string{"012", "345"} {
		rg := ""
		if i > 0 {
			rg = "bytes=3-"
		}
		_, b, err := get(t, ht, u, rg)
		if !errors.Is(err, ErrBrokenTransfer) {
			t.Fatalf("transfer %d: expecting a broken transfer, got %v", i, err)
		}
		if string(b) != want {
			t.Errorf("transfer %d: expecting %q, got %q", i, want, b)
		}
	}
	_, b, err := get(t, ht, u, "bytes=6-")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "6789" {
		t.Errorf("Expecting %q, got %q", "6789", b)
	}
}

func TestFromDisk(t *testing.T) {
	ht := New(func(ht *HttpTest) {
		ht.UrlToFilefn = func(string) string { return "httptest.go" }
	})
	resp, b, err := get(t, ht, "http://example.com/any", "")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 || len(b) == 0 {
		t.Errorf("Expecting the file content, got status %d and %d bytes", resp.StatusCode, len(b))
	}
}

func TestWithoutRanges(t *testing.T) {
	const u = "http://example.com/a.mp3"
	ht := New(WithFile(u, []byte("0123456789")), WithoutRanges())
	resp, b, err := get(t, ht, u, "bytes=4-")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 || string(b) != "0123456789" {
		t.Errorf("Expecting the whole file, got status %d and %q", resp.StatusCode, b)
	}
	if resp.Header.Get("Content-Range") != "" {
		t.Errorf("Expecting no Content-Range, got %q", resp.Header.Get("Content-Range"))
	}
}
