package probe

import (
	"context"
	"fmt"

	"github.com/bogem/id3v2/v2"
)

// ID3v2 reads ID3v2 frames directly from MP3 files.
type ID3v2 struct{}

// Tags returns the normalized tags that are set.
func (ID3v2) Tags(ctx context.Context, path string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read id3v2 tag: %w", err)
	}
	defer tag.Close()

	tags := make(map[string]string)
	setIf(tags, KeyTitle, tag.Title())
	setIf(tags, KeyAlbum, tag.Album())
	setIf(tags, KeyArtist, tag.Artist())
	setIf(tags, KeyAlbumArtist, tag.GetTextFrame("TPE2").Text)
	setIf(tags, KeyGenre, tag.Genre())
	setIf(tags, KeyPublisher, tag.GetTextFrame("TPUB").Text)

	date := tag.GetTextFrame("TDRC").Text
	if date == "" {
		date = tag.GetTextFrame("TYER").Text
	}
	setIf(tags, KeyDate, date)

	for _, f := range tag.GetFrames("COMM") {
		if comment, ok := f.(id3v2.CommentFrame); ok && comment.Text != "" {
			setIf(tags, KeyComment, comment.Text)
			break
		}
	}

	return tags, nil
}

// Tag returns one normalized tag.
func (r ID3v2) Tag(ctx context.Context, path, name string) (string, error) {
	tags, err := r.Tags(ctx, path)
	if err != nil {
		return "", err
	}
	return lookup(tags, name), nil
}
