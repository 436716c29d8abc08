package parser

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"m3u8dl/enums"
	"m3u8dl/models"
	"m3u8dl/util"

	"github.com/grafov/m3u8"
	"go.uber.org/zap"
)

const keyDirective = "#EXT-X-KEY"

// ParsePlaylist downloads the playlist, parses it and resolves
// the active decryption key, if any. a non-empty config.DecryptionKey
// replaces the URI of the playlist's own key directive.
func ParsePlaylist(
	ctx context.Context,
	client models.HTTPClient,
	playlistURL string,
	config *models.DownloadConfig,
) (*models.Playlist, *models.DecryptionKey, error) {
	config = models.GetDownloadConfig(config)

	zap.S().Infof("parsing playlist %s", playlistURL)
	content, err := fetchContentWithContext(ctx, client, playlistURL, config)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", util.ErrPlaylistFetch, err)
	}

	playlist, err := ParsePlaylistContent(content, models.NewPlaylistReference(playlistURL))
	if err != nil {
		return nil, nil, err
	}
	zap.S().Infof("parsed %d segments", len(playlist.Segments))

	if config.DecryptionKey != "" {
		descriptor := &models.KeyDescriptor{
			Method: enums.KeyMethodAES128,
			URI:    config.DecryptionKey,
		}
		if playlist.Key != nil {
			descriptor.IV = playlist.Key.IV
		}
		playlist.Key = descriptor
	}
	if playlist.Key == nil {
		return playlist, nil, nil
	}

	key, err := ResolveKey(ctx, client, playlist.Key, config)
	if err != nil {
		return nil, nil, err
	}
	return playlist, key, nil
}

// ParsePlaylistContent turns playlist text into ordered segments
// and the last key directive seen.
func ParsePlaylistContent(
	content []byte,
	ref *models.PlaylistReference,
) (*models.Playlist, error) {
	if err := checkPlaylistType(content); err != nil {
		return nil, err
	}

	playlist := &models.Playlist{Reference: ref}
	baseURL, err := url.Parse(ref.BaseURL)
	if err != nil {
		baseURL = nil
	}

	lines := strings.Split(string(content), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, keyDirective):
			playlist.Key = parseKeyDirective(line)
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		default:
			playlist.Segments = append(playlist.Segments, &models.Segment{
				Index: len(playlist.Segments) + 1,
				URL:   resolveURL(baseURL, ref.BaseURL, line),
			})
		}
	}
	if len(playlist.Segments) == 0 {
		return nil, util.ErrEmptyPlaylist
	}
	return playlist, nil
}

// parses #EXT-X-KEY:METHOD=AES-128,URI="...",IV=0x...
// METHOD=NONE or an empty URI clears the active key
func parseKeyDirective(line string) *models.KeyDescriptor {
	attrs := line[len(keyDirective):]
	attrs = strings.TrimPrefix(attrs, ":")

	descriptor := &models.KeyDescriptor{Method: enums.KeyMethodAES128}
	for name, value := range parseAttributes(attrs) {
		switch name {
		case "METHOD":
			descriptor.Method = enums.ParseKeyMethod(value)
		case "URI":
			descriptor.URI = value
		case "IV":
			descriptor.IV = value
		}
	}
	if descriptor.Method == enums.KeyMethodNone || descriptor.URI == "" {
		return nil
	}
	return descriptor
}

// splits comma separated KEY=VALUE pairs, commas inside
// quoted values do not split
func parseAttributes(attrs string) map[string]string {
	result := make(map[string]string)
	var parts []string
	var current strings.Builder
	inQuotes := false
	for _, r := range attrs {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == ',' && !inQuotes:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	parts = append(parts, current.String())

	for _, part := range parts {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		name = strings.ToUpper(strings.TrimSpace(name))
		result[name] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	return result
}

func resolveURL(base *url.URL, basePrefix string, uri string) string {
	if isNetworkURL(uri) {
		return uri
	}
	if base == nil || !base.IsAbs() {
		return basePrefix + uri
	}
	ref, err := url.Parse(uri)
	if err != nil {
		return basePrefix + uri
	}
	return base.ResolveReference(ref).String()
}

// grafov's decoder classifies the playlist, the line parser
// stays authoritative for segments and keys
func checkPlaylistType(content []byte) error {
	playlist, listType, err := decodePlaylist(content)
	if err != nil {
		zap.S().Debugf("m3u8 decoder rejected playlist: %v", err)
		if bytes.Contains(content, []byte("#EXT-X-STREAM-INF")) {
			return util.ErrMasterPlaylist
		}
		return nil
	}
	switch listType {
	case m3u8.MASTER:
		return util.ErrMasterPlaylist
	case m3u8.MEDIA:
		media, ok := playlist.(*m3u8.MediaPlaylist)
		if ok && !media.Closed {
			zap.S().Warn("playlist has no #EXT-X-ENDLIST, downloading the segments listed right now")
		}
	}
	return nil
}

// the decoder panics on a key directive followed by a
// segment without #EXTINF
func decodePlaylist(content []byte) (playlist m3u8.Playlist, listType m3u8.ListType, err error) {
	defer func() {
		if r := recover(); r != nil {
			playlist = nil
			err = fmt.Errorf("m3u8 decoder panicked: %v", r)
		}
	}()
	return m3u8.DecodeFrom(bytes.NewReader(content), false)
}
