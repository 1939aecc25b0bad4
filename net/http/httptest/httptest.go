// Package httptest serves files from memory or disk through an
// http.RoundTripper, honouring byte ranges and simulating broken transfers.
package httptest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// ErrBrokenTransfer is the error returned by bodies cut short on purpose.
var ErrBrokenTransfer = errors.New("connection reset by fixture")

type HttpTest struct {
	UrlToFilefn func(u string) string
	files       map[string][]byte

	mu       sync.Mutex
	failures int   // transfers still to break
	cut      int64 // bytes sent before breaking a transfer
	noRanges bool
	requests []*http.Request
}

func New(conf ...func(ht *HttpTest)) *HttpTest {
	ht := &HttpTest{files: map[string][]byte{}}
	fileDirect()(ht)
	for _, fn := range conf {
		fn(ht)
	}
	return ht
}

func fileDirect() func(ht *HttpTest) {
	return func(ht *HttpTest) {
		ht.UrlToFilefn = func(u string) string {
			return u
		}
	}
}

// WithFile serves content at the given url.
func WithFile(u string, content []byte) func(ht *HttpTest) {
	return func(ht *HttpTest) {
		ht.files[u] = content
	}
}

// WithBrokenTransfers makes the n next transfers fail after sending cut bytes.
func WithBrokenTransfers(n int, cut int64) func(ht *HttpTest) {
	return func(ht *HttpTest) {
		ht.failures = n
		ht.cut = cut
	}
}

// WithoutRanges makes the fixture answer every request with the whole file,
// like servers that don't support byte ranges.
func WithoutRanges() func(ht *HttpTest) {
	return func(ht *HttpTest) {
		ht.noRanges = true
	}
}

// Requests returns the requests received so far.
func (ht *HttpTest) Requests() []*http.Request {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	return append([]*http.Request(nil), ht.requests...)
}

func (ht *HttpTest) content(u string) ([]byte, error) {
	if b, ok := ht.files[u]; ok {
		return b, nil
	}
	return ioutil.ReadFile(ht.UrlToFilefn(u))
}

func (ht *HttpTest) RoundTrip(r *http.Request) (*http.Response, error) {
	url := ""
	if r != nil && r.URL != nil {
		url = r.URL.String()
	}

	ht.mu.Lock()
	ht.requests = append(ht.requests, r)
	broken := ht.failures > 0
	if broken {
		ht.failures--
	}
	cut := ht.cut
	noRanges := ht.noRanges
	ht.mu.Unlock()

	b, err := ht.content(url)
	if err != nil {
		return response(r, http.StatusNotFound, nil, nil), nil
	}

	header := make(http.Header)
	header.Set("Content-Type", "audio/mpeg")
	status := http.StatusOK
	if rg := r.Header.Get("Range"); rg != "" && !noRanges {
		start, err := parseRange(rg)
		if err != nil {
			return response(r, http.StatusBadRequest, nil, nil), nil
		}
		if start >= int64(len(b)) {
			header.Set("Content-Range", fmt.Sprintf("bytes */%d", len(b)))
			return response(r, http.StatusRequestedRangeNotSatisfiable, header, nil), nil
		}
		header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, len(b)-1, len(b)))
		b = b[start:]
		status = http.StatusPartialContent
	}

	resp := response(r, status, header, b)
	if broken {
		if cut > int64(len(b)) {
			cut = int64(len(b))
		}
		resp.Body = ioutil.NopCloser(io.MultiReader(bytes.NewReader(b[:cut]), errReader{}))
	}
	return resp, nil
}

func response(r *http.Request, status int, header http.Header, body []byte) *http.Response {
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.0",
		ProtoMajor:    1,
		ProtoMinor:    0,
		Body:          ioutil.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Close:         true,
		Request:       r,
		Header:        header,
	}
}

// parseRange reads the open ended ranges sent when resuming: "bytes=N-".
func parseRange(s string) (int64, error) {
	if !strings.HasPrefix(s, "bytes=") || !strings.HasSuffix(s, "-") {
		return 0, fmt.Errorf("unsupported range %q", s)
	}
	return strconv.ParseInt(s[len("bytes="):len(s)-1], 10, 64)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, ErrBrokenTransfer }
