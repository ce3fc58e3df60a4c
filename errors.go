package scopefs

import "errors"

var (
	// ErrNotFound is returned when the resolved path does not exist under the root
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied is returned when the OS refuses access to a resolved path
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidEncoding is returned when a request path cannot be percent-decoded into UTF-8
	ErrInvalidEncoding = errors.New("invalid path encoding")
	// ErrIO is returned when reading or writing the filesystem fails after resolution
	ErrIO = errors.New("i/o error")
	// ErrMissingTarget is returned when an upload carries no destination selector
	ErrMissingTarget = errors.New("missing upload target")
	// ErrBadBoundary is returned when a multipart upload has no usable boundary
	ErrBadBoundary = errors.New("invalid multipart boundary")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
)
