package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress is returned when a sync is requested while one is running
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrCRMUnavailable is returned when the CRM cannot be reached or keeps throttling
	ErrCRMUnavailable = errors.New("crm unavailable")

	// ErrSyncDisabled is returned when no CRM webhook is configured
	ErrSyncDisabled = errors.New("crm sync not configured")
)
