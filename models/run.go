package models

import "m3u8dl/enums"

type RunState struct {
	State      enums.RunState
	Total      int
	Completed  int
	Key        *DecryptionKey
	StagingDir string
	OutputPath string
	Staged     []string // staging file paths in index order
}
