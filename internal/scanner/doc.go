// Package scanner discovers media files under the configured library roots
// and reconciles the catalog against the filesystem: new files enter the
// pipeline pending, changed files are requeued, vanished files are flagged
// missing. Hashing runs on a bounded worker pool, and an optional fsnotify
// watcher triggers incremental scans as files arrive.
package scanner
