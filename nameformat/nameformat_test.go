package nameformat

import (
	"errors"
	"testing"

	"github.com/alecthomas/repr"
	"github.com/google/go-cmp/cmp"

	"github.com/wlevine/clamz/playlists/amz"
)

func testTrack() *amz.Track {
	pl := amz.NewPlaylist()
	pl.Title = "Greatest Hits"
	pl.Creator = "The Band"
	pl.AddMeta(amz.PlaylistMetaASIN, "B000ALBUM")

	tr := pl.NewTrack()
	tr.Title = "Song"
	tr.Creator = "The Band"
	tr.Album = "Greatest Hits"
	tr.TrackNum = "3"
	return tr
}

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestParseTree(t *testing.T) {
	tests := []struct {
		format string
		want   []Node
	}{
		{"plain", []Node{Literal("plain")}},
		{"$title.mp3", []Node{Var{"title"}, Literal(".mp3")}},
		{"${title}x", []Node{Var{"title"}, Literal("x")}},
		{"cost: 5$", []Node{Literal("cost: 5$")}},
		{"a$-b", []Node{Literal("a$-b")}},
		{"a${}b", []Node{Literal("a$b")}},
		{"${a:-x${b}y}", []Node{Default{"a", &Format{src: "x${b}y", Nodes: []Node{Literal("x"), Var{"b"}, Literal("y")}}}}},
		{"${a:+}", []Node{Present{"a", &Format{src: ""}}}},
		{"${a{b}c}", []Node{Var{"a{b}c"}}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			f, err := Parse(tt.format)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, f.Nodes, cmp.AllowUnexported(Format{})); diff != "" {
				t.Errorf("unexpected tree (-want +got):\n%s", diff)
				t.Log(repr.String(f.Nodes))
			}
			if f.String() != tt.format {
				t.Errorf("expected source %q, got %q", tt.format, f.String())
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		format string
		err    error
	}{
		{"${title", ErrUnterminatedReference},
		{"${a:-${b}", ErrUnterminatedReference},
		{"${title:x}", ErrInvalidConditional},
		{"${title:}", ErrInvalidConditional},
		{"${a:-ok}/${b:-${c:?}}", ErrInvalidConditional},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			_, err := Parse(tt.format)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			var se *SyntaxError
			if !errors.As(err, &se) || se.Format != tt.format {
				t.Errorf("expected a SyntaxError on the whole template, got %#v", err)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name   string
		format string
		opts   Options
		track  func(tr *amz.Track)
		want   string
	}{
		{
			name:   "default table fallback",
			format: "${tracknum} - ${title}.${suffix}",
			want:   "03 - song.mp3",
		},
		{
			name:   "uppercase allowed",
			format: "${tracknum} - ${title}.${suffix}",
			opts:   Options{AllowUppercase: true},
			want:   "03 - Song.mp3",
		},
		{
			name:   "alternative when empty",
			format: "${genre:-Unknown Genre}",
			want:   "Unknown Genre",
		},
		{
			name:   "value when present",
			format: "${genre:-Unknown Genre}",
			track:  func(tr *amz.Track) { tr.AddMeta(amz.TrackMetaGenre, "Rock") },
			want:   "rock",
		},
		{
			name:   "conditional absent",
			format: "${asin:+(${asin})}",
			want:   "",
		},
		{
			name:   "conditional present",
			format: "${asin:+(${asin})}",
			track:  func(tr *amz.Track) { tr.AddMeta(amz.TrackMetaASIN, "B001") },
			want:   "(b001)",
		},
		{
			name:   "forbidden characters",
			format: "${title}",
			opts:   Options{ForbidChars: "!"},
			track:  func(tr *amz.Track) { tr.Title = "No! Way" },
			want:   "no_ way",
		},
		{
			name:   "defaults",
			format: "$title|$creator|$album|$tracknum|$album_artist|$genre|$discnum|$suffix|$asin|$album_asin|$amz_genre",
			opts:   Options{AllowUppercase: true},
			track: func(tr *amz.Track) {
				*tr = *amz.NewPlaylist().NewTrack()
			},
			want: "Unknown|Unknown|Unknown|00|Unknown|Unknown|1|mp3|||Unknown",
		},
		{
			name:   "playlist variables",
			format: "${AMZ_CREATOR}/${amz_title} [${amz_asin}]",
			opts:   Options{AllowUppercase: true},
			want:   "The Band/Greatest Hits [B000ALBUM]",
		},
		{
			name:   "alternative bypasses the default",
			format: "${discnum:-}${discnum:+disc}",
			want:   "",
		},
		{
			name:   "two digit track number",
			format: "$tracknum",
			track:  func(tr *amz.Track) { tr.TrackNum = "12" },
			want:   "12",
		},
		{
			name:   "slash in value",
			format: "${album_artist}/${title}",
			track: func(tr *amz.Track) {
				tr.AddMeta(amz.TrackMetaAlbumArtist, "AC/DC")
				tr.Title = "T\tN\x7f"
			},
			want: "ac_dc/t_n_",
		},
		{
			name:   "dot guard",
			format: "${title}/${album}/x${creator}",
			track: func(tr *amz.Track) {
				tr.Title = ".hidden"
				tr.Album = "..."
				tr.Creator = ".ok"
			},
			want: "_.hidden/_.../x.ok",
		},
		{
			name:   "dot guard in alternative",
			format: "${genre:-${title}}",
			track:  func(tr *amz.Track) { tr.Title = ".t" },
			want:   "_.t",
		},
		{
			name:   "environment is raw",
			format: "$HOME/${XDG_MUSIC_DIR}/$title",
			want:   "/home/Me/Music Dir/song",
		},
		{
			name:   "unset environment",
			format: "[$NOPE]${NOPE:-none}",
			want:   "[]none",
		},
		{
			name:   "dotted environment value",
			format: "$DOTTED/x",
			want:   "_.cache/x",
		},
		{
			name:   "literal dollar",
			format: "$$ ${}${title}$",
			want:   "$$ $song$",
		},
	}
	environment := map[string]string{
		"HOME":          "/home/Me",
		"XDG_MUSIC_DIR": "Music Dir",
		"DOTTED":        ".cache",
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := testTrack()
			if tt.track != nil {
				tt.track(tr)
			}
			x := &Expander{Options: tt.opts, LookupEnv: env(environment)}
			got, err := x.ExpandString(tt.format, tr)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExpandReusesFormat(t *testing.T) {
	f := MustParse("${tracknum} ${title}")
	x := NewExpander(Options{})
	pl := amz.NewPlaylist()
	a, b := pl.NewTrack(), pl.NewTrack()
	a.TrackNum, a.Title = "1", "One"
	b.TrackNum, b.Title = "2", "Two"
	if got := x.Expand(f, a); got != "01 one" {
		t.Errorf("expected %q, got %q", "01 one", got)
	}
	if got := x.Expand(f, b); got != "02 two" {
		t.Errorf("expected %q, got %q", "02 two", got)
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic")
		}
	}()
	MustParse("${oops")
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		opts Options
		want string
	}{
		{"Hello World", Options{}, "hello world"},
		{"Hello World", Options{AllowUppercase: true}, "Hello World"},
		{"Café Noir", Options{}, "caf_ noir"},
		{"Café Noir", Options{AllowUTF8: true}, "café noir"},
		{"日本", Options{}, "__"},
		{"日本", Options{AllowUTF8: true}, "日本"},
		{"a/b\x00c\x1fd", Options{}, "a_b_c_d"},
		{`a:b?c*d`, Options{ForbidChars: `:?*`}, "a_b_c_d"},
		{"ABC", Options{ForbidChars: "a"}, "abc"},
		{"ABC", Options{ForbidChars: "a", AllowUppercase: true}, "ABC"},
		{"", Options{}, ""},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in, tt.opts); got != tt.want {
			t.Errorf("Sanitize(%q, %+v): expected %q, got %q", tt.in, tt.opts, tt.want, got)
		}
	}
}
