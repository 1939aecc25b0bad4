package http

import (
	"fmt"
	"io"
	"net/http"
	"sort"
)

// transcriptTransport writes request and response headers to the client's
// transcript, with the markers used by curl: '*' for information,
// '>' for what is sent and '<' for what is received.
type transcriptTransport struct {
	next http.RoundTripper
	c    *Client
}

func (t *transcriptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	w := t.c.transcript
	if w == nil {
		return next.RoundTrip(req)
	}

	fmt.Fprintf(w, "* Connecting to %s\n", req.URL.Host)
	fmt.Fprintf(w, "> %s %s HTTP/1.1\n", req.Method, req.URL.RequestURI())
	fmt.Fprintf(w, "> Host: %s\n", req.URL.Host)
	writeHeader(w, "> ", req.Header)
	fmt.Fprintf(w, ">\n")

	resp, err := next.RoundTrip(req)
	if err != nil {
		fmt.Fprintf(w, "* %s\n", err)
		return nil, err
	}
	fmt.Fprintf(w, "< %s %s\n", resp.Proto, resp.Status)
	writeHeader(w, "< ", resp.Header)
	fmt.Fprintf(w, "<\n")
	return resp, nil
}

func writeHeader(w io.Writer, prefix string, h http.Header) {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range h[k] {
			fmt.Fprintf(w, "%s%s: %s\n", prefix, k, v)
		}
	}
}

func (c *Client) info(format string, a ...interface{}) {
	if c.transcript == nil {
		return
	}
	fmt.Fprintf(c.transcript, "* "+format+"\n", a...)
}
