package amz

import (
	"fmt"
	"io"
)

var playlistMetaLabels = map[string]string{
	PlaylistMetaASIN:  "ASIN:     ",
	PlaylistMetaGenre: "Genre:    ",
}

var trackMetaLabels = map[string]string{
	TrackMetaAlbumArtist: "Album Artist:  ",
	TrackMetaAlbumASIN:   "Album ASIN:    ",
	TrackMetaASIN:        "ASIN:          ",
	TrackMetaDiscNum:     "Disc Number:   ",
	TrackMetaFileSize:    "File Size:     ",
	TrackMetaGenre:       "Genre:         ",
	TrackMetaProductType: "Product Type:  ",
	TrackMetaTrackType:   "File Type:     ",
}

// WriteInfo prints a human readable description of the playlist header.
func WriteInfo(w io.Writer, pl *Playlist, name string) error {
	ew := &errWriter{w: w}
	ew.printf("Playlist: %s\n", name)
	ew.field("* Title:    ", pl.Title)
	ew.field("* Creator:  ", pl.Creator)
	ew.field("* Image:    ", pl.ImageName)
	for _, m := range pl.Meta {
		if label, ok := playlistMetaLabels[m.URN]; ok {
			ew.printf("* %s%s\n", label, m.Value)
		} else {
			ew.printf("* '%s' = %s\n", m.URN, m.Value)
		}
	}
	return ew.err
}

// WriteTrackInfo prints a human readable description of the n-th track.
func WriteTrackInfo(w io.Writer, tr *Track, n int) error {
	ew := &errWriter{w: w}
	ew.printf("\n  Track %d:\n", n)
	ew.field("  - URL:           ", tr.Location)
	ew.field("  - Title:         ", tr.Title)
	ew.field("  - Creator:       ", tr.Creator)
	ew.field("  - Album:         ", tr.Album)
	ew.field("  - Image:         ", tr.ImageName)
	ew.field("  - Duration:      ", tr.Duration)
	ew.field("  - Track Number:  ", tr.TrackNum)
	for _, m := range tr.Meta {
		if label, ok := trackMetaLabels[m.URN]; ok {
			ew.printf("  - %s%s\n", label, m.Value)
		} else {
			ew.printf("  - '%s' = %s\n", m.URN, m.Value)
		}
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}

func (ew *errWriter) field(label, value string) {
	if value != "" {
		ew.printf("%s%s\n", label, value)
	}
}
