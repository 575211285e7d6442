// Package thumbs shells out to ffmpeg to render JPEG preview images for
// video and image items. Previews are stored under the data directory keyed
// by item ID; generation is best-effort and never blocks indexing.
package thumbs
