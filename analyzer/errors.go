package analyzer

import "errors"

// Errors returned by Analyze and AnalyzeFile. They wrap the underlying cause,
// so match them with errors.Is.
var (
	ErrStreamUnreadable = errors.New("unable to read CSV stream")
	ErrEmptyInput       = errors.New("CSV is empty or not formatted correctly")
	ErrProcessing       = errors.New("failed to process CSV stream")
	ErrCanceled         = errors.New("analysis canceled")
)
