package downloader

import (
	"fmt"

	"github.com/bogem/id3v2"
)

// writeID3Tags embeds the track title and uploader into an mp3 file so the
// download is labeled in players. Unknown placeholders are skipped; there is
// no value in tagging a file with "Unknown".
func writeID3Tags(path string, meta *TrackMetadata) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("opening mp3 for tagging: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(3)
	if meta.Title != "" && meta.Title != unknownField {
		tag.SetTitle(meta.Title)
	}
	if meta.Uploader != "" && meta.Uploader != unknownField {
		tag.SetArtist(meta.Uploader)
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("saving id3 tags: %w", err)
	}
	return nil
}
