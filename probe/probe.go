// Package probe reads durations and tags from the input audio files.
//
// Several strategies are available for each concern. The ffprobe strategies
// shell out to the ffprobe binary; the others read the files natively.
package probe

import (
	"context"
	"fmt"
	"math"
	"strings"

	"chapterize/ffprobe"
)

// Duration strategy names.
const (
	DurationFFprobe   = "ffprobe"
	DurationMP3Frames = "mp3frames"
	DurationAudiometa = "audiometa"
)

// Tag strategy names.
const (
	TagsFFprobe   = "ffprobe"
	TagsID3v2     = "id3v2"
	TagsAudiometa = "audiometa"
	TagsDhowden   = "tag"
)

// Normalized tag keys. Every TagReader reports tags under these names,
// which match the keys ffmpeg uses in FFMETADATA documents.
const (
	KeyTitle       = "title"
	KeyAlbum       = "album"
	KeyArtist      = "artist"
	KeyAlbumArtist = "album_artist"
	KeyGenre       = "genre"
	KeyDate        = "date"
	KeyPublisher   = "publisher"
	KeyComment     = "comment"
)

// DurationProbe reports the playback length of a file in seconds.
type DurationProbe interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// TagReader reads text tags from a file. A tag that is not set is reported
// as "", never as an error.
type TagReader interface {
	Tag(ctx context.Context, path, name string) (string, error)
	Tags(ctx context.Context, path string) (map[string]string, error)
}

// DurationStrategies lists the accepted duration strategy names.
func DurationStrategies() []string {
	return []string{DurationFFprobe, DurationMP3Frames, DurationAudiometa}
}

// TagStrategies lists the accepted tag strategy names.
func TagStrategies() []string {
	return []string{TagsFFprobe, TagsID3v2, TagsAudiometa, TagsDhowden}
}

// NewDurationProbe returns the duration strategy called name. prober is
// only used by the ffprobe strategy.
func NewDurationProbe(name string, prober *ffprobe.Prober) (DurationProbe, error) {
	switch strings.ToLower(name) {
	case DurationFFprobe, "":
		return NewFFprobe(prober), nil
	case DurationMP3Frames:
		return MP3Frames{}, nil
	case DurationAudiometa:
		return Audiometa{}, nil
	default:
		return nil, fmt.Errorf("unknown duration strategy %q (valid: %s)", name, strings.Join(DurationStrategies(), ", "))
	}
}

// NewTagReader returns the tag strategy called name. prober is only used by
// the ffprobe strategy.
func NewTagReader(name string, prober *ffprobe.Prober) (TagReader, error) {
	switch strings.ToLower(name) {
	case TagsFFprobe, "":
		return NewFFprobe(prober), nil
	case TagsID3v2:
		return ID3v2{}, nil
	case TagsAudiometa:
		return Audiometa{}, nil
	case TagsDhowden:
		return Dhowden{}, nil
	default:
		return nil, fmt.Errorf("unknown tag strategy %q (valid: %s)", name, strings.Join(TagStrategies(), ", "))
	}
}

// Calibrated scales the durations reported by another probe.
//
// Some encoders report lengths that drift slightly from what the
// concatenated stream plays back; a factor such as 1.00005 compensates.
type Calibrated struct {
	Probe  DurationProbe
	Factor float64
}

// Calibrate wraps p unless factor is exactly 1.
func Calibrate(p DurationProbe, factor float64) DurationProbe {
	if factor == 1 {
		return p
	}
	return Calibrated{Probe: p, Factor: factor}
}

// Duration returns the wrapped duration multiplied by Factor.
func (c Calibrated) Duration(ctx context.Context, path string) (float64, error) {
	if c.Factor <= 0 || math.IsNaN(c.Factor) || math.IsInf(c.Factor, 0) {
		return 0, fmt.Errorf("invalid calibration factor %v", c.Factor)
	}
	d, err := c.Probe.Duration(ctx, path)
	if err != nil {
		return 0, err
	}
	return d * c.Factor, nil
}

// lookup returns tags[name], matching case-insensitively.
func lookup(tags map[string]string, name string) string {
	if v, ok := tags[name]; ok {
		return v
	}
	for k, v := range tags {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// setIf stores value under key when it is not empty.
func setIf(tags map[string]string, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		tags[key] = value
	}
}
