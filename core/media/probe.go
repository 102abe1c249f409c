package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Prober extracts the device capture time of a media file.
type Prober interface {
	CaptureTime(ctx context.Context, path string) (time.Time, error)
}

// NoProbe never finds a capture time.
type NoProbe struct{}

// CaptureTime implements Prober.
func (NoProbe) CaptureTime(context.Context, string) (time.Time, error) {
	return time.Time{}, nil
}

// FFProbe reads format.tags.creation_time with the ffprobe binary.
type FFProbe struct {
	// Binary is the ffprobe executable. Empty selects "ffprobe" from PATH.
	Binary string
}

type probeOutput struct {
	Format struct {
		Tags map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		Tags map[string]string `json:"tags"`
	} `json:"streams"`
}

// CaptureTime implements Prober. A file without a creation tag yields the
// zero time and no error.
func (p FFProbe) CaptureTime(ctx context.Context, path string) (time.Time, error) {
	binary := strings.TrimSpace(p.Binary)
	if binary == "" {
		binary = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		return time.Time{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return ParseCaptureTime(output)
}

// ParseCaptureTime extracts the creation time from ffprobe JSON output,
// preferring the container tag over stream tags.
func ParseCaptureTime(output []byte) (time.Time, error) {
	var out probeOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return time.Time{}, fmt.Errorf("ffprobe parse: %w", err)
	}

	candidates := []map[string]string{out.Format.Tags}
	for _, s := range out.Streams {
		candidates = append(candidates, s.Tags)
	}
	for _, tags := range candidates {
		if ts, ok := creationTime(tags); ok {
			return ts, nil
		}
	}
	return time.Time{}, nil
}

func creationTime(tags map[string]string) (time.Time, bool) {
	for k, v := range tags {
		if !strings.EqualFold(k, "creation_time") {
			continue
		}
		v = strings.TrimSpace(v)
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
			if ts, err := time.Parse(layout, v); err == nil && !ts.IsZero() && ts.Unix() > 0 {
				return ts.UTC(), true
			}
		}
	}
	return time.Time{}, false
}
