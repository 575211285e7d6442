// Package tagging is the auto-tagging stage: it asks a local Ollama model to
// produce a short description and keyword tags for each item. Video and audio
// are tagged from their extracted metadata via a chat model; still images are
// sent to a vision model as base64 payloads.
package tagging
