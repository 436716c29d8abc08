package util

import "fmt"

type Error struct {
	Message string
}

func (err *Error) Error() string {
	return err.Message
}

var (
	ErrPlaylistFetch  = &Error{Message: "failed to fetch playlist"}
	ErrMasterPlaylist = &Error{Message: "multi-variant playlists are not supported, pass a media playlist url"}
	ErrEmptyPlaylist  = &Error{Message: "playlist contains no segments"}
	ErrKeyFetch       = &Error{Message: "failed to fetch decryption key"}
	ErrKeyFormat      = &Error{Message: "invalid key format, expected hex or http(s) url"}
	ErrSegmentFetch   = &Error{Message: "segment download failed after all retries"}
	ErrPadding        = &Error{Message: "invalid padding in decrypted segment"}
)

// SegmentError ties an error kind to the segment it happened on.
type SegmentError struct {
	Index int
	Err   error
}

func (err *SegmentError) Error() string {
	return fmt.Sprintf("segment %d: %v", err.Index, err.Err)
}

func (err *SegmentError) Unwrap() error {
	return err.Err
}
