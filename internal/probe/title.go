package probe

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"medley/internal/media/ffprobe"
)

var (
	separatorPattern = regexp.MustCompile(`[._]+`)
	spacePattern     = regexp.MustCompile(`\s+`)
	titleCaser       = cases.Title(language.Und)
)

// DeriveTitle prefers the container's own title tag and falls back to a
// cleaned-up version of the filename.
func DeriveTitle(path string, result ffprobe.Result) string {
	if tagged := strings.TrimSpace(result.Tag("title")); tagged != "" {
		return tagged
	}
	return TitleFromFilename(path)
}

// TitleFromFilename turns "the.big.lebowski_1998.mkv" into "The Big Lebowski 1998".
func TitleFromFilename(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = separatorPattern.ReplaceAllString(base, " ")
	base = spacePattern.ReplaceAllString(strings.TrimSpace(base), " ")
	if base == "" {
		return filepath.Base(path)
	}
	if base == strings.ToLower(base) {
		return titleCaser.String(base)
	}
	// Mixed case filenames already carry intentional casing.
	return base
}
