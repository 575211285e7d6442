// Package library persists the media catalog in SQLite and exposes helpers
// for driving item lifecycles.
//
// The Store manages database connections, schema migrations, stats queries,
// heartbeat tracking, stuck-item recovery, and the status transitions the
// workflow manager relies on. Each MediaItem row captures the file's path,
// content hash, technical metadata, AI-generated tags and description, and
// the embedding vector used for semantic search.
//
// Treat this package as the single source of truth for catalog semantics;
// when you add new statuses or columns, add a migration under migrations/
// and extend itemColumns plus scanItem together.
package library
