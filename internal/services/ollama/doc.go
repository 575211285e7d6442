// Package ollama provides a small HTTP client for a local Ollama server,
// covering JSON-mode chat completions, vision generation for still images,
// and embedding requests. Transient failures are retried with exponential
// backoff; model output that arrives wrapped in code fences or prose is
// recovered by DecodeModelJSON.
package ollama
