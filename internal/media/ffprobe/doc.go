// Package ffprobe shells out to ffprobe and decodes its JSON report into a
// small Result type with helpers for the fields medley cares about:
// durations, resolutions, codecs, and container tags. ffprobe handles every
// media family the scanner classifies, including still images, so this is
// the single metadata extraction path.
package ffprobe
