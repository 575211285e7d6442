// Command medley is the CLI for the medley media catalog. Commands operate
// on the catalog database directly; the daemon (medleyd) handles background
// probing, tagging, and embedding.
package main
