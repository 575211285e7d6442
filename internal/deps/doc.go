// Package deps verifies the external tools and services medley depends on:
// ffprobe for metadata extraction, optionally ffmpeg, and the Ollama server
// for tagging and search.
package deps
