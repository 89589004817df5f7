package probe

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/dhowden/tag"
)

// Dhowden reads tags with github.com/dhowden/tag, which understands ID3v1,
// ID3v2, MP4 atoms and Vorbis comments.
type Dhowden struct{}

// Tags returns the normalized tags that are set.
func (Dhowden) Tags(ctx context.Context, path string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("could not read tags: %w", err)
	}

	tags := make(map[string]string)
	setIf(tags, KeyTitle, m.Title())
	setIf(tags, KeyAlbum, m.Album())
	setIf(tags, KeyArtist, m.Artist())
	setIf(tags, KeyAlbumArtist, m.AlbumArtist())
	setIf(tags, KeyGenre, m.Genre())
	setIf(tags, KeyComment, m.Comment())
	if year := m.Year(); year > 0 {
		tags[KeyDate] = strconv.Itoa(year)
	}

	raw := m.Raw()
	for _, key := range []string{"TPUB", "TPB", "publisher"} {
		if s, ok := raw[key].(string); ok {
			setIf(tags, KeyPublisher, s)
			break
		}
	}

	return tags, nil
}

// Tag returns one normalized tag.
func (r Dhowden) Tag(ctx context.Context, path, name string) (string, error) {
	tags, err := r.Tags(ctx, path)
	if err != nil {
		return "", err
	}
	return lookup(tags, name), nil
}
