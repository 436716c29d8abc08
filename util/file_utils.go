package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const SegmentExt = ".ts"

// staging directory sits beside the output:
// movie.mp4 -> movie.parts
func StagingDir(outputPath string) string {
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + ".parts"
}

// returns staged segment files sorted by name, which is playback order
func ListStagedFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*"+SegmentExt))
	if err != nil {
		return nil, fmt.Errorf("failed to list staging files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// copies the file at path to dst using a fixed 32KB buffer
func AppendFile(dst io.Writer, path string) (int64, error) {
	src, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	buf := make([]byte, 32*1024)
	n, err := io.CopyBuffer(dst, src, buf)
	if err != nil {
		return n, fmt.Errorf("failed to copy %s: %w", path, err)
	}
	return n, nil
}
