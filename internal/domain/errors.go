// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrEndpointNotFound is returned when no endpoint matches a slug or id.
	ErrEndpointNotFound = errors.New("endpoint not found")

	// ErrPlaylistNotFound is returned when a playlist cannot be found.
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrAssetNotFound is returned when a media asset cannot be found.
	ErrAssetNotFound = errors.New("media asset not found")

	// ErrSlugConflict is returned when a slug is already taken by another endpoint.
	ErrSlugConflict = errors.New("endpoint slug already in use")

	// ErrInvalidSlug is returned when a slug fails the embed slug format.
	ErrInvalidSlug = errors.New("invalid endpoint slug")

	// ErrStreamUnavailable is returned when the stream service cannot be reached
	// or answers with a non-success status.
	ErrStreamUnavailable = errors.New("stream unavailable")

	// ErrPlaybackBlocked is returned when the media element refuses to start
	// playback without a user gesture.
	ErrPlaybackBlocked = errors.New("playback blocked")

	// ErrNoSource is returned when playback is attempted before a source is set.
	ErrNoSource = errors.New("no media source")

	// ErrAudioUnsupported is returned when the runtime cannot build an audio graph.
	ErrAudioUnsupported = errors.New("audio analysis not supported")

	// ErrSurfaceUnavailable is returned when no drawing surface can be obtained.
	ErrSurfaceUnavailable = errors.New("drawing surface unavailable")

	// ErrUnsupportedFormat is returned when a media file format cannot be ingested.
	ErrUnsupportedFormat = errors.New("unsupported media format")

	// ErrNoAudioTrack is returned when a container holds no decodable audio.
	ErrNoAudioTrack = errors.New("no audio track")

	// ErrScanCancelled is returned when a library import is canceled.
	ErrScanCancelled = errors.New("scan cancelled")

	// ErrClosed is returned by components used after Close/Dispose.
	ErrClosed = errors.New("component closed")
)

// RepositoryError represents an error from a repository.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load", "delete")
	Type    string // Repository type (e.g., "endpoint", "playlist", "asset")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   any    // Value that failed validation
	Message string // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "StreamService", "LibraryService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// DecodeError wraps a failure while demuxing or decoding a media file.
type DecodeError struct {
	Path  string // File being decoded
	Codec string // Codec name, empty when detection failed
	Err   error  // Underlying error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Codec != "" {
		return fmt.Sprintf("decode %s (%s): %v", e.Path, e.Codec, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
