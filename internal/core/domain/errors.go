package domain

import (
	"errors"
	"fmt"
)

// Client-facing messages. These strings are part of the HTTP contract.
const (
	MsgInvalidYear        = "Invalid year format. Please use YYYY."
	MsgInvalidCoordinates = "Invalid coordinates. lon and lat must be numbers."
	MsgInvalidDimension   = "Invalid dim. Please use a positive number of kilometers."
	MsgNoImages           = "No images found for the given year and location. Please try different years or locations."
	MsgSessionUnavailable = "Imagery platform session is not initialized."
)

var (
	// ErrNoImages is returned when the filtered collection is empty.
	ErrNoImages = errors.New(MsgNoImages)
	// ErrSessionUnavailable is returned when no platform session was established at startup.
	ErrSessionUnavailable = errors.New(MsgSessionUnavailable)
)

// ValidationError reports a request parameter that failed to parse.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConfigurationError reports a missing, unreadable or malformed credential file.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: credentials %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// InitializationError reports that the remote platform rejected the
// credentials or could not be reached.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialization error: %v", e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }
