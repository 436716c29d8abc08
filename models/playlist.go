package models

import (
	"fmt"
	"strings"
)

// PlaylistReference is the playlist URL together with the
// prefix used to resolve relative segment lines.
type PlaylistReference struct {
	URL     string
	BaseURL string
}

func NewPlaylistReference(playlistURL string) *PlaylistReference {
	base := playlistURL
	if idx := strings.LastIndex(playlistURL, "/"); idx >= 0 {
		base = playlistURL[:idx+1]
	}
	return &PlaylistReference{
		URL:     playlistURL,
		BaseURL: base,
	}
}

type Segment struct {
	Index int // 1-based, playback order
	URL   string
}

// zero-padded so that lexical order equals playback order
func (s *Segment) StagingName(ext string) string {
	return fmt.Sprintf("%06d%s", s.Index, ext)
}

type Playlist struct {
	Reference *PlaylistReference
	Segments  []*Segment
	Key       *KeyDescriptor // last key directive, nil when unencrypted
}
