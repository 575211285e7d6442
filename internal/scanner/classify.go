package scanner

import (
	"path/filepath"
	"strings"

	"medley/internal/config"
	"medley/internal/library"
)

// Classifier maps file paths to media families using the configured
// extension lists, and filters paths against the exclude patterns.
type Classifier struct {
	video    map[string]struct{}
	audio    map[string]struct{}
	image    map[string]struct{}
	excludes []string
}

// NewClassifier builds a classifier from the library configuration.
func NewClassifier(lib config.Library) *Classifier {
	return &Classifier{
		video:    extensionSet(lib.VideoExtensions),
		audio:    extensionSet(lib.AudioExtensions),
		image:    extensionSet(lib.ImageExtensions),
		excludes: append([]string(nil), lib.ExcludePatterns...),
	}
}

func extensionSet(extensions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		cleaned := strings.ToLower(strings.TrimSpace(ext))
		if cleaned == "" {
			continue
		}
		if !strings.HasPrefix(cleaned, ".") {
			cleaned = "." + cleaned
		}
		set[cleaned] = struct{}{}
	}
	return set
}

// Classify returns the media family for a path, or false when the
// extension is not cataloged.
func (c *Classifier) Classify(path string) (library.MediaType, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	if _, ok := c.video[ext]; ok {
		return library.MediaTypeVideo, true
	}
	if _, ok := c.audio[ext]; ok {
		return library.MediaTypeAudio, true
	}
	if _, ok := c.image[ext]; ok {
		return library.MediaTypeImage, true
	}
	return "", false
}

// Excluded reports whether any path segment matches an exclude pattern.
// Patterns use filepath.Match syntax and are tested against each segment
// so "*.tmp" and ".stversions" both behave as users expect.
func (c *Classifier) Excluded(path string) bool {
	if len(c.excludes) == 0 {
		return false
	}
	segments := strings.Split(filepath.ToSlash(path), "/")
	for _, pattern := range c.excludes {
		for _, segment := range segments {
			if segment == "" {
				continue
			}
			if matched, err := filepath.Match(pattern, segment); err == nil && matched {
				return true
			}
		}
	}
	return false
}
