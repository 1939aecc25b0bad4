// The http package provides the HTTP client used to fetch tracks.
// It handles a cookie jar shared by the whole run, the user agent string,
// resumed transfers and an optional transcript of the exchanges.

package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

// UserAgent is the user agent string sent when none is configured.
const UserAgent = "Amazon MP3 Downloader (clamz)"

// VersionedUserAgent returns the user agent string for a given release.
func VersionedUserAgent(version string) string {
	return fmt.Sprintf("Amazon MP3 Downloader (clamz %s)", version)
}

var (
	ErrRangeNotSatisfiable = errors.New("requested range not satisfiable")
	ErrRangeIgnored        = errors.New("server ignored the requested range")
)

// StatusError is returned when the server answers with an HTTP error.
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("the requested URL returned error: %s", e.Status)
}

// Unwrap lets errors.Is detect a rejected range.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusRequestedRangeNotSatisfiable {
		return ErrRangeNotSatisfiable
	}
	return nil
}

// Client is the classic http client with a cookie jar and a given user agent string
type Client struct {
	*http.Client
	userAgent  string
	Jar        *cookiejar.Jar
	transcript io.Writer
}

// SetCookieJar is configuration function to provide a cookie jar to the client
func SetCookieJar(cj *cookiejar.Jar) func(c *Client) {
	return func(c *Client) {
		c.Jar = cj
		c.Client.Jar = cj
	}
}

// SetUserAgent is configuration function to give a user agent string to the client
func SetUserAgent(ua string) func(c *Client) {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// SetTransport replaces the round tripper, mainly for tests.
func SetTransport(rt http.RoundTripper) func(c *Client) {
	return func(c *Client) {
		c.Client.Transport = &transcriptTransport{next: rt, c: c}
	}
}

// NewClient create an HTTP Client and configure it with a set of config functions.
// Unless one is given, the client gets its own in memory cookie jar.
func NewClient(conf ...func(c *Client)) *Client {
	c := &Client{
		Client:    &http.Client{},
		userAgent: UserAgent,
	}
	c.Client.Transport = &transcriptTransport{next: http.DefaultTransport, c: c}
	c.Client.CheckRedirect = c.checkRedirect

	jar, _ := cookiejar.New(nil) // never fails without options
	SetCookieJar(jar)(c)

	for _, f := range conf {
		f(c)
	}
	return c
}

// SetTranscript sends a curl like trace of the following exchanges to w.
// A nil writer stops the trace.
func (c *Client) SetTranscript(w io.Writer) {
	c.transcript = w
}

// NormalizeURL trims a track location and normalizes its scheme and host.
// The path, query and fragment are kept as written: signed URLs cover them.
func NormalizeURL(u string) (string, error) {
	u = strings.TrimSpace(u)
	if _, err := url.Parse(u); err != nil {
		return "", err
	}
	i := strings.Index(u, "://")
	if i < 0 {
		return u, nil
	}
	head, tail := u, ""
	if j := strings.IndexAny(u[i+3:], "/?#"); j >= 0 {
		head, tail = u[:i+3+j], u[i+3+j:]
	}
	head, err := purell.NormalizeURLString(head, purell.FlagLowercaseScheme|purell.FlagLowercaseHost|purell.FlagRemoveDefaultPort)
	if err != nil {
		return "", err
	}
	return head + tail, nil
}

// Fetch gets the resource at u, skipping its first offset bytes, and writes
// the body to w. progress, when not nil, is called with the number of bytes
// received so far and the size announced by the server, 0 when unknown.
func (c *Client) Fetch(ctx context.Context, u string, offset int64, w io.Writer, progress func(now, total int64)) error {
	nu, err := NormalizeURL(u)
	if err != nil {
		return fmt.Errorf("can't parse url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "GET", nu, nil)
	if err != nil {
		return fmt.Errorf("can't get url: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
		c.info("Resuming transfer from byte position %d", offset)
	}

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("can't get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.info("The requested URL returned error: %s", resp.Status)
		return &StatusError{URL: nu, Code: resp.StatusCode, Status: resp.Status}
	}
	if offset > 0 && resp.StatusCode == http.StatusOK && resp.ContentLength == offset {
		c.info("The entire document is already downloaded")
		return fmt.Errorf("nothing left after byte %d: %w", offset, ErrRangeNotSatisfiable)
	}
	if offset > 0 && resp.StatusCode != http.StatusPartialContent {
		c.info("HTTP server doesn't seem to support byte ranges. Cannot resume.")
		return ErrRangeIgnored
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	pw := &progressWriter{w: w, total: total, progress: progress}
	pw.report()

	n, err := io.Copy(pw, resp.Body)
	if err != nil {
		return fmt.Errorf("transfer interrupted after %d bytes: %w", n, err)
	}
	c.info("Transfer of %d bytes complete", n)
	return nil
}

func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	c.info("Issue another request to this URL: '%s'", req.URL)
	if ua := via[0].Header.Get("User-Agent"); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	return nil
}

type progressWriter struct {
	w        io.Writer
	now      int64
	total    int64
	progress func(now, total int64)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.now += int64(n)
	p.report()
	return n, err
}

func (p *progressWriter) report() {
	if p.progress != nil {
		p.progress(p.now, p.total)
	}
}
