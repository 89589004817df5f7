package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"chapterize/models"
	"chapterize/probe"
)

// resolveTags builds the book's global tags.
//
// The optional tags are seeded from the first file and overridden by the
// configured artist. The title comes from the configuration, then the first
// file's album tag, then the prompt, and finally the output name.
func (p *Pipeline) resolveTags(ctx context.Context, firstFile string) (models.AudiobookTags, error) {
	log := p.deps.Logger

	raw, err := p.deps.Tags.Tags(ctx, firstFile)
	if err != nil {
		if ctx.Err() != nil {
			return models.AudiobookTags{}, ctx.Err()
		}
		log.Warn("Could not read tags from first file", "file", filepath.Base(firstFile), "error", err)
		raw = map[string]string{}
	}

	tags := models.TagsFromSource(raw)
	tags.Genre = p.cfg.Genre
	tags.Comment = p.cfg.Comment
	if p.cfg.Artist != "" {
		tags.Artist = models.Some(p.cfg.Artist)
	}

	tags.Title = p.resolveTitle(strings.TrimSpace(raw[probe.KeyAlbum]))
	return tags, nil
}

func (p *Pipeline) resolveTitle(album string) string {
	log := p.deps.Logger

	if p.cfg.Title != "" {
		return p.cfg.Title
	}
	if album != "" {
		log.Debug("Using album tag as title", "title", album)
		return album
	}

	if p.deps.Asker != nil {
		title, err := p.deps.Asker.Ask("Book title", p.cfg.Output)
		if err == nil && strings.TrimSpace(title) != "" {
			return strings.TrimSpace(title)
		}
		log.Warn("No title entered", "error", err)
	}

	log.Warn("No title found, using output name", "title", p.cfg.Output)
	return p.cfg.Output
}
