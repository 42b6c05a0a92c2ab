package letter

import "errors"

var (
	// ErrNotFound is returned by stores when a record or object does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoResume is returned when a request carries neither a document nor a résumé ID.
	ErrNoResume = errors.New("no résumé provided (cv_file or cv_id required)")
	// ErrNotPDF is returned when an uploaded résumé is not a PDF document.
	ErrNotPDF = errors.New("résumé must be a PDF file")
)
