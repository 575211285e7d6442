// Package search implements semantic search over the catalog. The embedding
// stage flattens each item's metadata into a document, embeds it with a local
// Ollama model, and stores the vector as a float32 blob in SQLite. Queries
// are embedded the same way and ranked by cosine similarity in memory; a
// personal library is small enough that a vector index would be overkill.
package search
