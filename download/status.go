package download

import (
	"errors"

	"github.com/wlevine/clamz/playlists/amz"
)

// State is the stage reached by a track download.
type State int

const (
	Idle State = iota
	PathResolved
	Transferring
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PathResolved:
		return "path resolved"
	case Transferring:
		return "transferring"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Status is the outcome of a run, used as the process exit code. Higher is
// worse.
type Status int

const (
	StatusOK       Status = 0
	StatusSetup    Status = 1 // configuration or file name template
	StatusInput    Status = 2 // manifest can't be decoded or parsed, track without URL
	StatusSideFile Status = 3 // backup copy or transcript
	StatusDownload Status = 4
)

// Worst returns the worst of two statuses.
func Worst(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}

var (
	ErrNoLocation = errors.New("no URL provided for this track")
	ErrNoFilename = errors.New("no output filename specified")
)

// Result tells what happened to a track.
type Result struct {
	Track    *amz.Track
	Path     string
	State    State
	Attempts int
	Err      error
}

// Status maps the result to a run status.
func (r Result) Status() Status {
	switch {
	case r.Err == nil:
		return StatusOK
	case errors.Is(r.Err, ErrNoLocation):
		return StatusInput
	case errors.Is(r.Err, ErrNoFilename):
		return StatusSetup
	}
	return StatusDownload
}
