package probe

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/simonhull/audiometa"
)

// Audiometa reads durations, tags and cover art natively.
type Audiometa struct{}

// Duration returns the length reported by the stream headers.
func (Audiometa) Duration(ctx context.Context, path string) (float64, error) {
	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	return headerSeconds(path, file.Audio.Duration)
}

// headerSeconds converts a header duration. Zero is a valid empty file and
// becomes a zero-width chapter.
func headerSeconds(path string, d time.Duration) (float64, error) {
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %s for %s", d, path)
	}
	return d.Seconds(), nil
}

// Tags returns the normalized tags that are set.
func (Audiometa) Tags(ctx context.Context, path string) (map[string]string, error) {
	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	t := file.Tags
	tags := make(map[string]string)
	setIf(tags, KeyTitle, t.Title)
	setIf(tags, KeyAlbum, t.Album)
	setIf(tags, KeyArtist, t.Artist)
	setIf(tags, KeyAlbumArtist, t.AlbumArtist)
	setIf(tags, KeyGenre, strings.Join(t.Genres, ", "))
	setIf(tags, KeyPublisher, t.Publisher)
	setIf(tags, KeyComment, t.Comment)

	switch {
	case t.Date != "":
		setIf(tags, KeyDate, t.Date)
	case t.Year > 0:
		setIf(tags, KeyDate, strconv.Itoa(t.Year))
	}

	return tags, nil
}

// Tag returns one normalized tag.
func (a Audiometa) Tag(ctx context.Context, path, name string) (string, error) {
	tags, err := a.Tags(ctx, path)
	if err != nil {
		return "", err
	}
	return lookup(tags, name), nil
}

// ExtractCover returns the front cover embedded in path, falling back to the
// first picture of any type. It returns nil data when the file has none.
func ExtractCover(ctx context.Context, path string) (data []byte, mimeType string, err error) {
	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	artwork, err := file.ExtractArtwork()
	if err != nil {
		return nil, "", fmt.Errorf("failed to extract artwork: %w", err)
	}
	if len(artwork) == 0 {
		return nil, "", nil
	}

	for _, art := range artwork {
		if art.Type == audiometa.ArtworkFrontCover {
			return art.Data, art.MIMEType, nil
		}
	}
	return artwork[0].Data, artwork[0].MIMEType, nil
}
