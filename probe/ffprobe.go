package probe

import (
	"context"
	"strings"

	"chapterize/ffprobe"
)

// FFprobe reads durations and tags through the ffprobe binary.
type FFprobe struct {
	prober *ffprobe.Prober
}

// NewFFprobe wraps prober. A nil prober uses ffprobe from PATH.
func NewFFprobe(prober *ffprobe.Prober) *FFprobe {
	if prober == nil {
		prober = ffprobe.New("", 0)
	}
	return &FFprobe{prober: prober}
}

// Duration returns format=duration in seconds.
func (p *FFprobe) Duration(ctx context.Context, path string) (float64, error) {
	return p.prober.Duration(ctx, path)
}

// Tags returns the container tags with lower-case keys.
func (p *FFprobe) Tags(ctx context.Context, path string) (map[string]string, error) {
	result, err := p.prober.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	tags := make(map[string]string, len(result.Format.Tags))
	for k, v := range result.Format.Tags {
		tags[strings.ToLower(k)] = v
	}
	return tags, nil
}

// Tag returns a single container tag.
func (p *FFprobe) Tag(ctx context.Context, path, name string) (string, error) {
	result, err := p.prober.Probe(ctx, path)
	if err != nil {
		return "", err
	}
	return result.Tag(name), nil
}
