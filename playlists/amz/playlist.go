// Package amz reads the manifests sold with purchased music: an XSPF-like
// playlist, often base64 encoded and obfuscated with a legacy block cipher.
package amz

// Known playlist metadata URNs
const (
	PlaylistMetaASIN  = "http://www.amazon.com/dmusic/ASIN"
	PlaylistMetaGenre = "http://www.amazon.com/dmusic/primaryGenre"
)

// Track metadata URNs
const (
	TrackMetaAlbumArtist = "http://www.amazon.com/dmusic/albumPrimaryArtist"
	TrackMetaAlbumASIN   = "http://www.amazon.com/dmusic/albumASIN"
	TrackMetaASIN        = "http://www.amazon.com/dmusic/ASIN"
	TrackMetaDiscNum     = "http://www.amazon.com/dmusic/discNum"
	TrackMetaFileSize    = "http://www.amazon.com/dmusic/fileSize"
	TrackMetaGenre       = "http://www.amazon.com/dmusic/primaryGenre"
	TrackMetaProductType = "http://www.amazon.com/dmusic/productTypeName"
	TrackMetaTrackType   = "http://www.amazon.com/dmusic/trackType"
)

// MetaEntry is a metadata value keyed by its URN. The URN is empty when the
// meta tag had no rel attribute.
type MetaEntry struct {
	URN   string
	Value string
}

// MetaList holds metadata entries, the most recently opened entry first.
type MetaList []*MetaEntry

// prepend inserts a new entry in front of the list and returns it.
func (l *MetaList) prepend(urn string) *MetaEntry {
	m := &MetaEntry{URN: urn}
	*l = append(MetaList{m}, *l...)
	return m
}

// Lookup returns the value of the first entry with the given URN.
func (l MetaList) Lookup(urn string) (string, bool) {
	for _, m := range l {
		if m.URN != "" && m.URN == urn {
			return m.Value, true
		}
	}
	return "", false
}

// Value returns the value of the first entry with the given URN, or "".
func (l MetaList) Value(urn string) string {
	v, _ := l.Lookup(urn)
	return v
}

// Playlist is the content of one manifest. It owns its tracks, kept in
// document order.
type Playlist struct {
	Title     string
	Creator   string
	ImageName string
	Meta      MetaList
	Tracks    []*Track
}

// Track describes one purchased file.
type Track struct {
	playlist *Playlist

	Location  string
	Title     string
	Creator   string
	Album     string
	ImageName string
	Duration  string
	TrackNum  string // kept as text, leading zeros matter
	Meta      MetaList
}

// NewPlaylist returns an empty playlist
func NewPlaylist() *Playlist {
	return &Playlist{}
}

// Playlist returns the playlist holding the track.
func (t *Track) Playlist() *Playlist {
	return t.playlist
}

// addTrack appends a new track to the playlist.
func (p *Playlist) addTrack() *Track {
	t := &Track{playlist: p}
	p.Tracks = append(p.Tracks, t)
	return t
}

// NewTrack appends a track to the playlist. It is meant for callers building
// playlists without a manifest.
func (p *Playlist) NewTrack() *Track {
	return p.addTrack()
}

// AddMeta adds a metadata entry in front of the playlist's list.
func (p *Playlist) AddMeta(urn, value string) {
	p.Meta.prepend(urn).Value = value
}

// AddMeta adds a metadata entry in front of the track's list.
func (t *Track) AddMeta(urn, value string) {
	t.Meta.prepend(urn).Value = value
}
