// Package download places tracks on disk: it resolves their file names,
// then fetches them with resumable, retried transfers.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wlevine/clamz/mylog"
	"github.com/wlevine/clamz/nameformat"
	"github.com/wlevine/clamz/net/http"
	"github.com/wlevine/clamz/playlists/amz"
)

const (
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = 2 * time.Second
)

// Fetcher writes the resource found at url to w, skipping its first offset
// bytes. progress receives the bytes received and the announced size, 0 when
// unknown.
type Fetcher interface {
	Fetch(ctx context.Context, url string, offset int64, w io.Writer, progress func(now, total int64)) error
}

// Progresser displays the progression of a track transfer.
type Progresser interface {
	// Init is called when the transfer of a track begins.
	Init(tr *amz.Track, path string)
	// Update gives a percentage, or -1 when the size of the transfer is unknown.
	Update(percent int)
	// Done is called once the track is complete or abandoned.
	Done(err error)
}

// Settings drive the downloader.
type Settings struct {
	OutputDir  string // template, ignored when NameFormat gives an absolute path
	NameFormat string // template
	nameformat.Options

	Resume      bool // append to existing files instead of picking a new name
	DryRun      bool // resolve paths only
	MaxAttempts int // below 1 means a single attempt
	RetryDelay  time.Duration
}

// Downloader fetches the tracks one at a time.
type Downloader struct {
	settings Settings
	fetcher  Fetcher
	expander *nameformat.Expander
	dir      *nameformat.Format
	name     *nameformat.Format
	log      *mylog.MyLog
	pgr      Progresser
	sleep    func(ctx context.Context, d time.Duration) error
}

// ConfigurationFunction customizes a Downloader.
type ConfigurationFunction func(d *Downloader)

func WithLogger(l *mylog.MyLog) ConfigurationFunction {
	return func(d *Downloader) {
		d.log = l
	}
}

func WithProgresser(p Progresser) ConfigurationFunction {
	return func(d *Downloader) {
		d.pgr = p
	}
}

// WithSleeper replaces the wait between attempts.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) ConfigurationFunction {
	return func(d *Downloader) {
		d.sleep = fn
	}
}

// WithLookupEnv replaces the environment seen by file name templates.
func WithLookupEnv(fn func(string) (string, bool)) ConfigurationFunction {
	return func(d *Downloader) {
		d.expander.LookupEnv = fn
	}
}

// New compiles the file name templates. A template error means no track can
// be placed.
func New(s Settings, f Fetcher, conf ...ConfigurationFunction) (*Downloader, error) {
	if s.MaxAttempts < 1 {
		s.MaxAttempts = 1
	}
	if s.RetryDelay <= 0 {
		s.RetryDelay = DefaultRetryDelay
	}
	d := &Downloader{
		settings: s,
		fetcher:  f,
		expander: nameformat.NewExpander(s.Options),
		log:      mylog.Discard(),
		sleep:    sleep,
	}

	var err error
	if s.OutputDir != "" {
		d.dir, err = nameformat.Parse(s.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("invalid output directory: %w", err)
		}
	}
	if s.NameFormat != "" {
		d.name, err = nameformat.Parse(s.NameFormat)
		if err != nil {
			return nil, fmt.Errorf("invalid name format: %w", err)
		}
	}

	for _, c := range conf {
		c(d)
	}
	return d, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Path returns the file name of the track, before collision handling.
func (d *Downloader) Path(tr *amz.Track) string {
	name := ""
	if d.name != nil {
		name = d.expander.Expand(d.name, tr)
	}
	if d.dir == nil || filepath.IsAbs(name) {
		return name
	}
	return d.expander.Expand(d.dir, tr) + "/" + name
}

// Download places one track on disk. Errors are reported in the result and
// logged, they never prevent the next track from being downloaded.
func (d *Downloader) Download(ctx context.Context, tr *amz.Track) Result {
	r := Result{Track: tr, State: Idle}
	fail := func(err error) Result {
		r.State = Failed
		r.Err = err
		d.log.Error().Printf("[DOWNLOAD] %s", err)
		return r
	}

	if strings.TrimSpace(tr.Location) == "" {
		return fail(ErrNoLocation)
	}

	r.Path = d.Path(tr)
	if r.Path == "" {
		return fail(ErrNoFilename)
	}
	if !d.settings.Resume && exists(r.Path) {
		p := freeName(r.Path)
		d.log.Warning().Printf("\"%s\" already exists; renaming new file to \"%s\"", r.Path, p)
		r.Path = p
	}
	r.State = PathResolved
	d.log.Debug().Printf("[DOWNLOAD] '%s' will be saved as '%s'", tr.Title, r.Path)
	if d.settings.DryRun {
		return r
	}

	if err := os.MkdirAll(filepath.Dir(r.Path), 0777); err != nil {
		return fail(fmt.Errorf("cannot create directory: %w", err))
	}
	f, err := os.OpenFile(r.Path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
	if err != nil {
		return fail(fmt.Errorf("unable to open \"%s\": %w", r.Path, err))
	}

	r.State = Transferring
	d.log.Info().Printf("Downloading \"%s\"", r.Path)
	if d.pgr != nil {
		d.pgr.Init(tr, r.Path)
	}

	err = d.transfer(ctx, tr, f, &r)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("error writing to %s: %w", r.Path, cerr)
	}
	if d.pgr != nil {
		d.pgr.Done(err)
	}
	if err != nil {
		return fail(err)
	}
	r.State = Done
	d.log.Trace().Printf("[DOWNLOAD] '%s' complete after %d attempt(s)", r.Path, r.Attempts)
	return r
}

// transfer runs the attempt loop. Each attempt resumes where the file ends.
func (d *Downloader) transfer(ctx context.Context, tr *amz.Track, f *os.File, r *Result) error {
	var err error
	for r.Attempts < d.settings.MaxAttempts {
		r.Attempts++

		var offset int64
		offset, err = f.Seek(0, io.SeekEnd)
		if err != nil {
			return fmt.Errorf("error reading %s: %w", r.Path, err)
		}

		last := -2
		err = d.fetcher.Fetch(ctx, tr.Location, offset, f, func(now, total int64) {
			p := -1
			if total > 0 {
				p = int(100 * (offset + now) / (offset + total))
			}
			if p != last {
				last = p
				if d.pgr != nil {
					d.pgr.Update(p)
				}
			}
		})
		if err == nil {
			return nil
		}
		if offset != 0 && errors.Is(err, http.ErrRangeNotSatisfiable) {
			// The file was complete already.
			if d.pgr != nil {
				d.pgr.Update(100)
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		d.log.Error().Printf("[DOWNLOAD] Error downloading file: %s", err)
		if r.Attempts < d.settings.MaxAttempts {
			if serr := d.sleep(ctx, d.settings.RetryDelay); serr != nil {
				return serr
			}
		}
	}
	return fmt.Errorf("giving up after %d attempt(s): %w", r.Attempts, err)
}

func exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}

// freeName returns the first of p.1, p.2, ... that doesn't exist.
func freeName(p string) string {
	for i := 1; ; i++ {
		n := fmt.Sprintf("%s.%d", p, i)
		if !exists(n) {
			return n
		}
	}
}
