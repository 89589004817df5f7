package models

// AudiobookTags are the global tags of the generated audiobook.
//
// Title, Comment and Genre are always emitted. The pointer fields are
// optional: nil means the tag is absent and no line is written for it.
type AudiobookTags struct {
	Title       string  `json:"title"`
	Comment     string  `json:"comment"`
	Artist      *string `json:"artist,omitempty"`
	AlbumArtist *string `json:"album_artist,omitempty"`
	Genre       string  `json:"genre"`
	Date        *string `json:"date,omitempty"`
	Publisher   *string `json:"publisher,omitempty"`
}

// Some returns a pointer to v, for populating optional tag fields.
func Some(v string) *string {
	return &v
}

// OptionalFromMap returns a pointer to m[key] when the key is present.
//
// A present but empty value is kept: the tag existed in the source file.
func OptionalFromMap(m map[string]string, key string) *string {
	if v, ok := m[key]; ok {
		return &v
	}
	return nil
}

// TagsFromSource seeds audiobook tags from the raw tags of a source file.
//
// Only the optional fields are taken from the source. Title, Comment and
// Genre are decided by the caller.
func TagsFromSource(raw map[string]string) AudiobookTags {
	return AudiobookTags{
		Artist:      OptionalFromMap(raw, "artist"),
		AlbumArtist: OptionalFromMap(raw, "album_artist"),
		Date:        OptionalFromMap(raw, "date"),
		Publisher:   OptionalFromMap(raw, "publisher"),
	}
}
