// Package workflow drives catalog items through the processing pipeline.
//
// The manager polls the catalog for items whose status matches a registered
// stage, moves them into the stage's processing status, and executes the
// handler with a heartbeat goroutine refreshing the item's liveness marker.
// Items whose heartbeat goes stale (a crashed or wedged stage) are rolled
// back to the stage entry status and retried. Failures that a human must
// look at are flagged for review instead of retried blindly.
package workflow
