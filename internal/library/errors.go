package library

import "errors"

// ErrorClassifier allows errors to declare their classification for failure handling.
// Errors that implement this interface can influence whether a failure is
// retried automatically or parked for manual review.
type ErrorClassifier interface {
	// ErrorKind returns a string classification of the error.
	// Known kinds that require review: "validation", "configuration", "not_found"
	ErrorKind() string
}

// NeedsReview reports whether a stage error should park the item for manual
// intervention instead of plain retry.
func NeedsReview(err error) bool {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		switch classifier.ErrorKind() {
		case "validation", "configuration", "not_found":
			return true
		}
	}
	return false
}
