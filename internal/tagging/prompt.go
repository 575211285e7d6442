package tagging

import (
	"fmt"
	"strings"

	"medley/internal/library"
	"medley/internal/media/ffprobe"
)

const systemPrompt = `You are a media librarian. Given technical metadata about a media file,
respond with JSON of the form {"description": "...", "tags": ["...", "..."]}.
The description is one or two sentences. Tags are short lowercase keywords
covering genre, mood, and content. Respond with JSON only.`

const visionPrompt = `Describe this image for a personal media library. Respond with JSON of the
form {"description": "...", "tags": ["...", "..."]}. The description is one or
two sentences. Tags are short lowercase keywords covering subject, setting,
and mood. Respond with JSON only.`

// buildMetadataPrompt flattens what is known about the item into a compact
// prompt the model can tag from.
func buildMetadataPrompt(item *library.Item) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "File: %s\n", item.Path)
	fmt.Fprintf(&builder, "Media type: %s\n", item.MediaType)
	if title := strings.TrimSpace(item.Title); title != "" {
		fmt.Fprintf(&builder, "Title: %s\n", title)
	}

	if result, err := ffprobe.Parse([]byte(item.MediaInfoJSON)); err == nil {
		if duration := result.DurationSeconds(); duration > 0 {
			fmt.Fprintf(&builder, "Duration: %.0f seconds\n", duration)
		}
		if codecs := result.Codecs(); len(codecs) > 0 {
			fmt.Fprintf(&builder, "Codecs: %s\n", strings.Join(codecs, ", "))
		}
		if width, height := result.Resolution(); width > 0 {
			fmt.Fprintf(&builder, "Resolution: %dx%d\n", width, height)
		}
		for _, key := range []string{"artist", "album", "genre", "date", "comment", "show", "episode_id"} {
			if value := result.Tag(key); value != "" {
				fmt.Fprintf(&builder, "%s: %s\n", strings.ToUpper(key[:1])+key[1:], value)
			}
		}
	}
	return builder.String()
}
