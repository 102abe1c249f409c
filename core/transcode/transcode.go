// Package transcode renders proxies with ffmpeg.
//
// A profile names a fixed set of encoder arguments. The default profile,
// proxy_1080p, fits the picture into 1920x1080 with letterboxing, encodes
// H.264 High@4.1 at CRF 23 with AAC audio, and moves the index atom to the
// front for progressive playback. Container metadata, including the
// creation time the capture identity is read from, is copied to the proxy.
package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"dailies/core/logger"

	"go.uber.org/zap"
)

// DefaultProfile is the profile used when none is configured.
const DefaultProfile = "proxy_1080p"

// Config holds the transcoder configuration.
type Config struct {
	// Binary is the ffmpeg executable.
	Binary string `mapstructure:"binary" default:"ffmpeg"`
	// TempDir receives in-flight outputs. Empty uses the system default.
	TempDir string `mapstructure:"temp_dir" default:""`
}

func fit(width, height int) []string {
	return []string{
		"-vf", fmt.Sprintf("scale=%d:%d:flags=lanczos:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
			width, height, width, height),
	}
}

var h264 = []string{
	"-c:v", "libx264",
	"-pix_fmt", "yuv420p",
	"-profile:v", "high",
	"-level:v", "4.1",
	"-preset", "fast",
	"-crf", "23",
}

var aac = []string{
	"-c:a", "aac",
	"-b:a", "128k",
	"-ar", "48000",
}

var profiles = map[string][]string{
	"proxy_1080p": concat(fit(1920, 1080), h264, aac),
	"proxy_720p":  concat(fit(1280, 720), h264, aac),
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Profiles returns the known profile names.
func Profiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasProfile reports whether name is a known profile. An empty name selects
// DefaultProfile.
func HasProfile(name string) bool {
	if name == "" {
		return true
	}
	_, ok := profiles[name]
	return ok
}

// Args returns the ffmpeg arguments rendering input to output.
func Args(profile, input, output string) ([]string, error) {
	encode, ok := profiles[profile]
	if !ok {
		return nil, fmt.Errorf("unknown transcode profile %q (known: %s)", profile, strings.Join(Profiles(), ", "))
	}
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin", "-y", "-i", input, "-map_metadata", "0"}
	args = append(args, encode...)
	args = append(args, "-movflags", "+faststart", "-f", "mp4", output)
	return args, nil
}

// FFmpeg implements executor.Transcoder.
type FFmpeg struct {
	cfg    Config
	logger *zap.Logger
}

// New creates an ffmpeg transcoder.
func New(cfg Config, log *zap.Logger) *FFmpeg {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "ffmpeg"
	}
	return &FFmpeg{cfg: cfg, logger: logger.OrNop(log)}
}

// Available reports whether the ffmpeg binary can be found.
func (f *FFmpeg) Available() error {
	if _, err := exec.LookPath(f.cfg.Binary); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	return nil
}

// Transcode renders sourcePath into a new temporary file and returns its
// path. The caller owns and removes the file.
func (f *FFmpeg) Transcode(ctx context.Context, sourcePath, profile string) (string, error) {
	out, err := os.CreateTemp(f.cfg.TempDir, "."+strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))+"-*.mp4")
	if err != nil {
		return "", fmt.Errorf("create transcode output: %w", err)
	}
	output := out.Name()
	_ = out.Close()

	args, err := Args(profile, sourcePath, output)
	if err != nil {
		_ = os.Remove(output)
		return "", err
	}

	f.logger.Debug("Transcoding", zap.String("source", sourcePath), zap.String("profile", profile))

	cmd := exec.CommandContext(ctx, f.cfg.Binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		_ = os.Remove(output)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg %s: %w: %s", filepath.Base(sourcePath), err, strings.TrimSpace(stderr.String()))
	}

	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(output)
		return "", fmt.Errorf("ffmpeg %s: produced no output", filepath.Base(sourcePath))
	}
	return output, nil
}
