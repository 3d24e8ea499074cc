// Package enhance post-processes published audio with ffmpeg: high-pass
// rumble removal, spectral denoise and loudness normalization.
package enhance

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path"
	"strings"

	"go.uber.org/zap"
)

// audioFilter is the ffmpeg filter chain applied to every recording.
const audioFilter = "highpass=f=80,afftdn=nf=-25,loudnorm=I=-16:TP=-1.5:LRA=11"

// Enhancer runs ffmpeg over downloaded recording files.
type Enhancer struct {
	ffmpegPath string
	logger     *zap.Logger
}

// New creates an enhancer. ffmpegPath defaults to "ffmpeg" on PATH.
func New(ffmpegPath string, logger *zap.Logger) *Enhancer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enhancer{ffmpegPath: ffmpegPath, logger: logger}
}

// Process reads inputPath, applies the filter chain and writes outputPath.
// The output container is inferred from the output extension.
func (e *Enhancer) Process(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-y",
		"-i", inputPath,
		"-af", audioFilter,
		outputPath,
	}
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Debug("running ffmpeg", zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}
	return nil
}

// OutputKey derives the destination object key for an enhanced recording:
// the source key itself when overwriting, otherwise the stem with suffix
// appended before the extension.
func OutputKey(sourceKey, suffix string, overwrite bool) string {
	if overwrite {
		return sourceKey
	}
	ext := path.Ext(sourceKey)
	return strings.TrimSuffix(sourceKey, ext) + suffix + ext
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
