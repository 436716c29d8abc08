package av

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

// RemuxFile rewrites the container of inputFile in place with a
// stream copy, the muxer is picked by ffmpeg from the extension.
func RemuxFile(inputFile string) error {
	ext := strings.ToLower(filepath.Ext(inputFile))
	switch ext {
	case ".mp4", ".mkv", ".mov", ".ts":
	default:
		return fmt.Errorf("unsupported output container for extension: %s", ext)
	}
	outputFile := strings.TrimSuffix(inputFile, filepath.Ext(inputFile)) +
		".remux-" + uuid.NewString() + ext

	kwargs := ffmpeg.KwArgs{"c": "copy"}
	if ext == ".mp4" || ext == ".mov" {
		kwargs["movflags"] = "+faststart"
	}
	err := ffmpeg.
		Input(inputFile).
		Output(outputFile, kwargs).
		Silent(zap.S().Level() != zap.DebugLevel).
		OverWriteOutput().
		Run()
	if err != nil {
		os.Remove(outputFile)
		return fmt.Errorf("failed to remux file: %w", err)
	}
	if err := os.Rename(outputFile, inputFile); err != nil {
		os.Remove(outputFile)
		return fmt.Errorf("failed to replace remuxed file: %w", err)
	}
	return nil
}
