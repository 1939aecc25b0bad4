package amz

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"

	"github.com/wlevine/clamz/mylog"
)

// MaxDepth bounds the element nesting accepted in a manifest.
const MaxDepth = 1024

var ErrDepthExceeded = errors.New("maximum stack depth exceeded")

// ParseError reports malformed markup, or markup nested deeper than MaxDepth.
type ParseError struct {
	File   string
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid XML (%s) in %s, line %d, column %d", e.Msg, e.File, e.Line, e.Column)
}

func (e *ParseError) Unwrap() error { return e.Err }

type tagKind int

const (
	unknownTag tagKind = iota
	albumTag
	creatorTag
	durationTag
	imageTag
	locationTag
	metaTag
	playlistTag
	titleTag
	trackTag
	tracklistTag
	trackNumTag
)

var tagKinds = map[string]tagKind{
	"album":     albumTag,
	"creator":   creatorTag,
	"duration":  durationTag,
	"image":     imageTag,
	"location":  locationTag,
	"meta":      metaTag,
	"playlist":  playlistTag,
	"title":     titleTag,
	"track":     trackTag,
	"tracklist": tracklistTag,
	"trackNum":  trackNumTag,
}

// scope tells which objects receive character data. track is an index in
// Playlist.Tracks, -1 outside of a track. meta is nil outside of a meta tag.
type scope struct {
	track int
	meta  *MetaEntry
}

func (s scope) inTrack() bool { return s.track >= 0 }
func (s scope) inMeta() bool  { return s.meta != nil }

type parser struct {
	playlist *Playlist
	scope    scope
	stack    []tagKind
	skipTo   int // stack depth of an ignored track tag, 0 when none
}

// Read decodes and parses a manifest.
func Read(data []byte, name string, log *mylog.MyLog) (*Playlist, error) {
	text, err := Decode(data, name, log)
	if err != nil {
		return nil, err
	}
	pl, err := Parse(text, name)
	if err != nil {
		return nil, err
	}
	log.Trace().Printf("[PARSER] '%s': %d track(s)", name, len(pl.Tracks))
	return pl, nil
}

// Parse builds a playlist from the manifest markup. On error, no playlist is
// returned.
func Parse(text []byte, name string) (*Playlist, error) {
	d := xml.NewDecoder(bytes.NewReader(text))
	d.CharsetReader = charset.NewReaderLabel

	p := &parser{
		playlist: NewPlaylist(),
		scope:    scope{track: -1},
		stack:    make([]tagKind, 0, 16),
	}

	fail := func(msg string, err error) error {
		line, col := d.InputPos()
		return &ParseError{File: name, Line: line, Column: col, Msg: msg, Err: err}
	}

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			var se *xml.SyntaxError
			if errors.As(err, &se) {
				return nil, fail(se.Msg, err)
			}
			return nil, fail(err.Error(), err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(p.stack)+1 >= MaxDepth {
				return nil, fail(ErrDepthExceeded.Error(), ErrDepthExceeded)
			}
			p.start(t)
		case xml.EndElement:
			p.end()
		case xml.CharData:
			p.chars(string(t))
		}
	}
	return p.playlist, nil
}

func (p *parser) start(t xml.StartElement) {
	if p.skipTo > 0 {
		p.stack = append(p.stack, unknownTag)
		return
	}
	kind := tagKinds[t.Name.Local]

	switch kind {
	case metaTag:
		if p.scope.inMeta() {
			kind = unknownTag
			break
		}
		var urn string
		for _, a := range t.Attr {
			if a.Name.Local == "rel" {
				urn = a.Value
				break
			}
		}
		if p.scope.inTrack() {
			p.scope.meta = p.playlist.Tracks[p.scope.track].Meta.prepend(urn)
		} else {
			p.scope.meta = p.playlist.Meta.prepend(urn)
		}
	case trackTag:
		if p.scope.inTrack() {
			// Nothing below a nested track is recorded.
			kind = unknownTag
			p.skipTo = len(p.stack) + 1
			break
		}
		p.playlist.addTrack()
		p.scope.track = len(p.playlist.Tracks) - 1
	}

	p.stack = append(p.stack, kind)
}

func (p *parser) end() {
	if len(p.stack) == 0 {
		return
	}
	if p.skipTo == len(p.stack) {
		p.skipTo = 0
	}
	switch p.stack[len(p.stack)-1] {
	case metaTag:
		p.scope.meta = nil
	case trackTag:
		p.scope.track = -1
	}
	p.stack = p.stack[:len(p.stack)-1]
}

func (p *parser) chars(s string) {
	if len(p.stack) == 0 {
		return
	}

	var tr *Track
	if p.scope.inTrack() {
		tr = p.playlist.Tracks[p.scope.track]
	}

	switch p.stack[len(p.stack)-1] {
	case albumTag:
		if tr != nil {
			tr.Album += s
		}
	case creatorTag:
		if tr != nil {
			tr.Creator += s
		} else {
			p.playlist.Creator += s
		}
	case durationTag:
		if tr != nil {
			tr.Duration += s
		}
	case imageTag:
		if tr != nil {
			tr.ImageName += s
		} else {
			p.playlist.ImageName += s
		}
	case locationTag:
		if tr != nil {
			tr.Location += s
		}
	case metaTag:
		if p.scope.inMeta() {
			p.scope.meta.Value += s
		}
	case titleTag:
		if tr != nil {
			tr.Title += s
		} else {
			p.playlist.Title += s
		}
	case trackNumTag:
		if tr != nil {
			tr.TrackNum += s
		}
	}
}
