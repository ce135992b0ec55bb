package domain

import "errors"

var (
	// ErrDatasetNotFound is returned when the dataset path does not resolve
	ErrDatasetNotFound = errors.New("dataset file not found")

	// ErrSchema is returned when a required dataset column is missing
	ErrSchema = errors.New("dataset schema error")

	// ErrParse marks a malformed dataset row; such rows are skipped, not fatal
	ErrParse = errors.New("malformed dataset row")

	// ErrNotLoaded is returned when a query runs before any successful load
	ErrNotLoaded = errors.New("dataset not loaded")

	// ErrEmptyQuery is returned when no ingredients are supplied
	ErrEmptyQuery = errors.New("no ingredients provided")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrImageNotFound is returned when no image file exists for a name
	ErrImageNotFound = errors.New("image not found")

	// ErrDownloadFailed is returned when a remote dataset cannot be fetched
	ErrDownloadFailed = errors.New("dataset download failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
