// Package daemon combines the library scanner, workflow manager, and REST
// API server into a single lifecycle with flock-based locking to prevent
// multiple concurrent instances against the same catalog.
package daemon
