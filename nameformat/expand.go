package nameformat

import (
	"os"
	"strings"

	"github.com/wlevine/clamz/playlists/amz"
)

type variable struct {
	value    func(tr *amz.Track) string
	fallback string
}

func trackMeta(urn string) func(*amz.Track) string {
	return func(tr *amz.Track) string { return tr.Meta.Value(urn) }
}

func playlistMeta(urn string) func(*amz.Track) string {
	return func(tr *amz.Track) string {
		if pl := tr.Playlist(); pl != nil {
			return pl.Meta.Value(urn)
		}
		return ""
	}
}

func playlistField(get func(*amz.Playlist) string) func(*amz.Track) string {
	return func(tr *amz.Track) string {
		if pl := tr.Playlist(); pl != nil {
			return get(pl)
		}
		return ""
	}
}

// variables known by templates, keyed by lower case name. Any other name is
// looked up in the environment.
var variables = map[string]variable{
	"title":        {func(tr *amz.Track) string { return tr.Title }, "Unknown"},
	"creator":      {func(tr *amz.Track) string { return tr.Creator }, "Unknown"},
	"album":        {func(tr *amz.Track) string { return tr.Album }, "Unknown"},
	"tracknum":     {func(tr *amz.Track) string { return twoDigits(tr.TrackNum) }, "00"},
	"album_artist": {trackMeta(amz.TrackMetaAlbumArtist), "Unknown"},
	"genre":        {trackMeta(amz.TrackMetaGenre), "Unknown"},
	"discnum":      {trackMeta(amz.TrackMetaDiscNum), "1"},
	"suffix":       {trackMeta(amz.TrackMetaTrackType), "mp3"},
	"asin":         {trackMeta(amz.TrackMetaASIN), ""},
	"album_asin":   {trackMeta(amz.TrackMetaAlbumASIN), ""},
	"amz_title":    {playlistField(func(pl *amz.Playlist) string { return pl.Title }), "Unknown"},
	"amz_creator":  {playlistField(func(pl *amz.Playlist) string { return pl.Creator }), "Unknown"},
	"amz_asin":     {playlistMeta(amz.PlaylistMetaASIN), ""},
	"amz_genre":    {playlistMeta(amz.PlaylistMetaGenre), "Unknown"},
}

// twoDigits pads a single digit track number.
func twoDigits(d string) string {
	if len(d) == 1 {
		return "0" + d
	}
	return d
}

// Expander turns templates into file names for a given track.
type Expander struct {
	Options

	// LookupEnv resolves names that aren't track variables. It defaults to
	// os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// NewExpander returns an expander reading the process environment.
func NewExpander(o Options) *Expander {
	return &Expander{Options: o, LookupEnv: os.LookupEnv}
}

// Expand returns the file name described by the template for the track.
func (x *Expander) Expand(f *Format, tr *amz.Track) string {
	e := &expansion{x: x, track: tr}
	f.expand(e)
	return e.out.String()
}

// ExpandString parses then expands a template.
func (x *Expander) ExpandString(format string, tr *amz.Track) (string, error) {
	f, err := Parse(format)
	if err != nil {
		return "", err
	}
	return x.Expand(f, tr), nil
}

type expansion struct {
	x     *Expander
	track *amz.Track
	out   strings.Builder
}

// value resolves a variable. Manifest values are sanitized, environment
// values are used as they are.
func (e *expansion) value(name string, useFallback bool) string {
	if v, ok := variables[strings.ToLower(name)]; ok {
		s := ""
		if e.track != nil {
			s = v.value(e.track)
		}
		if s == "" && useFallback {
			s = v.fallback
		}
		return Sanitize(s, e.x.Options)
	}

	lookup := e.x.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	s, _ := lookup(name)
	return s
}

// substitute appends a value, guarding against names starting with a dot.
func (e *expansion) substitute(s string) {
	if strings.HasPrefix(s, ".") {
		cur := e.out.String()
		if cur == "" || strings.HasSuffix(cur, "/") {
			e.out.WriteByte('_')
		}
	}
	e.out.WriteString(s)
}

func (f *Format) expand(e *expansion) {
	for _, n := range f.Nodes {
		n.expand(e)
	}
}

func (l Literal) expand(e *expansion) {
	e.out.WriteString(string(l))
}

func (v Var) expand(e *expansion) {
	e.substitute(e.value(v.Name, true))
}

func (d Default) expand(e *expansion) {
	if s := e.value(d.Name, false); s != "" {
		e.substitute(s)
		return
	}
	d.Alt.expand(e)
}

func (p Present) expand(e *expansion) {
	if e.value(p.Name, false) != "" {
		p.Alt.expand(e)
	}
}
