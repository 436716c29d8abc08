package parser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"m3u8dl/enums"
	"m3u8dl/models"
	"m3u8dl/util"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(zap.ReplaceGlobals(zap.New(core)))
	return logs
}

func TestParsePlaylistContent_ResolvesRelativeSegments(t *testing.T) {
	content := []byte("#EXTM3U\n" +
		"#EXT-X-TARGETDURATION:10\n" +
		"#EXTINF:10,\n" +
		"seg1.ts\n" +
		"#EXTINF:10,\n" +
		"http://cdn.example/x/seg2.ts\n" +
		"#EXTINF:10,\n" +
		"../c/seg3.ts\n" +
		"#EXT-X-ENDLIST\n")
	ref := models.NewPlaylistReference("http://h/a/b/index.m3u8")

	playlist, err := ParsePlaylistContent(content, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"http://h/a/b/seg1.ts",
		"http://cdn.example/x/seg2.ts",
		"http://h/a/c/seg3.ts",
	}
	if len(playlist.Segments) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(playlist.Segments))
	}
	for i, seg := range playlist.Segments {
		if seg.Index != i+1 {
			t.Fatalf("segment %d index mismatch: got %d", i, seg.Index)
		}
		if seg.URL != want[i] {
			t.Fatalf("segment %d url mismatch: want %s got %s", i, want[i], seg.URL)
		}
	}
	if playlist.Key != nil {
		t.Fatalf("expected no key, got %#v", playlist.Key)
	}
}

func TestParsePlaylistContent_CRLFAndBlankLines(t *testing.T) {
	content := []byte("#EXTM3U\r\n\r\n#EXTINF:4,\r\n  seg1.ts  \r\n\r\n#EXTINF:4,\r\nseg2.ts\r\n")
	playlist, err := ParsePlaylistContent(content, models.NewPlaylistReference("https://h/p/list.m3u8"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(playlist.Segments) != 2 || playlist.Segments[0].URL != "https://h/p/seg1.ts" {
		t.Fatalf("unexpected segments: %#v", playlist.Segments)
	}
}

func TestParsePlaylistContent_LastKeyDirectiveWins(t *testing.T) {
	content := []byte("#EXTM3U\n" +
		`#EXT-X-KEY:METHOD=AES-128,URI="https://k/first.bin"` + "\n" +
		`#EXT-X-KEY:METHOD=AES-128,URI="https://k/second.bin",IV=0x000102030405060708090a0b0c0d0e0f` + "\n" +
		"#EXTINF:10,\nseg1.ts\n")

	playlist, err := ParsePlaylistContent(content, models.NewPlaylistReference("http://h/index.m3u8"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if playlist.Key == nil {
		t.Fatalf("expected key descriptor")
	}
	if playlist.Key.URI != "https://k/second.bin" {
		t.Fatalf("unexpected uri %q", playlist.Key.URI)
	}
	if playlist.Key.IV != "0x000102030405060708090a0b0c0d0e0f" {
		t.Fatalf("unexpected iv %q", playlist.Key.IV)
	}
	if playlist.Key.Method != enums.KeyMethodAES128 {
		t.Fatalf("unexpected method %q", playlist.Key.Method)
	}
}

func TestParsePlaylistContent_MethodNoneClearsKey(t *testing.T) {
	content := []byte("#EXTM3U\n" +
		`#EXT-X-KEY:METHOD=AES-128,URI="00112233445566778899aabbccddeeff"` + "\n" +
		"#EXT-X-KEY:METHOD=NONE\n" +
		"#EXTINF:10,\nseg1.ts\n")

	playlist, err := ParsePlaylistContent(content, models.NewPlaylistReference("http://h/index.m3u8"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if playlist.Key != nil {
		t.Fatalf("expected key to be cleared, got %#v", playlist.Key)
	}
}

func TestParsePlaylistContent_RejectsMasterPlaylist(t *testing.T) {
	content := []byte("#EXTM3U\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=1280000,RESOLUTION=1280x720\n" +
		"720p.m3u8\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=640000,RESOLUTION=640x360\n" +
		"360p.m3u8\n")

	_, err := ParsePlaylistContent(content, models.NewPlaylistReference("http://h/master.m3u8"))
	if !errors.Is(err, util.ErrMasterPlaylist) {
		t.Fatalf("expected ErrMasterPlaylist, got %v", err)
	}
}

func TestParsePlaylistContent_Empty(t *testing.T) {
	_, err := ParsePlaylistContent([]byte("#EXTM3U\n#EXT-X-ENDLIST\n"), models.NewPlaylistReference("http://h/i.m3u8"))
	if !errors.Is(err, util.ErrEmptyPlaylist) {
		t.Fatalf("expected ErrEmptyPlaylist, got %v", err)
	}
}

func TestParseAttributes_QuotedCommas(t *testing.T) {
	attrs := parseAttributes(`METHOD=AES-128,URI="https://k/key?a=1,b=2",IV=0xAB,KEYFORMAT="identity"`)
	if attrs["METHOD"] != "AES-128" {
		t.Fatalf("unexpected method %q", attrs["METHOD"])
	}
	if attrs["URI"] != "https://k/key?a=1,b=2" {
		t.Fatalf("unexpected uri %q", attrs["URI"])
	}
	if attrs["IV"] != "0xAB" {
		t.Fatalf("unexpected iv %q", attrs["IV"])
	}
}

func TestNewPlaylistReference(t *testing.T) {
	ref := models.NewPlaylistReference("http://h/a/b/index.m3u8")
	if ref.BaseURL != "http://h/a/b/" {
		t.Fatalf("unexpected base %q", ref.BaseURL)
	}
}

func TestParsePlaylist_FetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, _, err := ParsePlaylist(context.Background(), srv.Client(), srv.URL+"/index.m3u8", &models.DownloadConfig{Timeout: time.Second})
	if !errors.Is(err, util.ErrPlaylistFetch) {
		t.Fatalf("expected ErrPlaylistFetch, got %v", err)
	}
}

func TestParsePlaylist_KeyOverrideKeepsPlaylistIV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U\n" +
			`#EXT-X-KEY:METHOD=AES-128,URI="key.bin",IV=0x0f0e0d0c0b0a09080706050403020100` + "\n" +
			"#EXTINF:10,\nseg1.ts\n"))
	}))
	defer srv.Close()

	config := &models.DownloadConfig{
		Timeout:       time.Second,
		DecryptionKey: "00112233445566778899aabbccddeeff",
	}
	playlist, key, err := ParsePlaylist(context.Background(), srv.Client(), srv.URL+"/v/index.m3u8", config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if playlist.Segments[0].URL != srv.URL+"/v/seg1.ts" {
		t.Fatalf("unexpected segment url %q", playlist.Segments[0].URL)
	}
	if key == nil {
		t.Fatalf("expected resolved key")
	}
	if key.Key[0] != 0x00 || key.Key[15] != 0xff {
		t.Fatalf("override key not used: %x", key.Key)
	}
	if key.IV[0] != 0x0f || key.IV[15] != 0x00 {
		t.Fatalf("playlist iv not kept: %x", key.IV)
	}
}

func TestParsePlaylistContent_KeyWithoutExtinf(t *testing.T) {
	const keyLine = `#EXT-X-KEY:METHOD=AES-128,URI="00112233445566778899aabbccddeeff"`
	tests := map[string]string{
		"with header":    "#EXTM3U\n" + keyLine + "\nseg1.ts\nseg2.ts\n",
		"without header": keyLine + "\nseg1.ts\nseg2.ts\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			playlist, err := ParsePlaylistContent([]byte(content), models.NewPlaylistReference("http://h/v/index.m3u8"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(playlist.Segments) != 2 || playlist.Segments[1].URL != "http://h/v/seg2.ts" {
				t.Fatalf("unexpected segments: %#v", playlist.Segments)
			}
			if playlist.Key == nil || playlist.Key.URI != "00112233445566778899aabbccddeeff" {
				t.Fatalf("unexpected key: %#v", playlist.Key)
			}
		})
	}
}

func TestParsePlaylistContent_EmptyURIClearsKey(t *testing.T) {
	tests := map[string]string{
		"missing uri": "#EXT-X-KEY:METHOD=AES-128",
		"empty uri":   `#EXT-X-KEY:METHOD=AES-128,URI=""`,
	}
	for name, keyLine := range tests {
		t.Run(name, func(t *testing.T) {
			content := []byte("#EXTM3U\n" +
				`#EXT-X-KEY:METHOD=AES-128,URI="00112233445566778899aabbccddeeff"` + "\n" +
				keyLine + "\n#EXTINF:10,\nseg1.ts\n")
			playlist, err := ParsePlaylistContent(content, models.NewPlaylistReference("http://h/index.m3u8"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if playlist.Key != nil {
				t.Fatalf("expected no key, got %#v", playlist.Key)
			}
		})
	}
}

func TestParsePlaylist_LogsSegmentCount(t *testing.T) {
	logs := observeLogs(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U\n#EXTINF:10,\nseg1.ts\n#EXTINF:10,\nseg2.ts\n#EXTINF:10,\nseg3.ts\n#EXT-X-ENDLIST\n"))
	}))
	defer srv.Close()

	_, _, err := ParsePlaylist(context.Background(), srv.Client(), srv.URL+"/index.m3u8", &models.DownloadConfig{Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := logs.FilterMessage("parsed 3 segments").All()
	if len(entries) != 1 {
		t.Fatalf("expected one segment count line, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel {
		t.Fatalf("unexpected level %s", entries[0].Level)
	}
}
