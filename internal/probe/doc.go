// Package probe is the metadata extraction stage: it runs ffprobe against a
// cataloged file, stores the raw report on the item, and derives a display
// title from the container tags or the filename.
package probe
