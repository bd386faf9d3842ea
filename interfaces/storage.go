package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by a local store when the requested file does not exist.
	// Readers treat it as the signal to try the remote backend next.
	ErrNotFound = errors.New("asset not found")

	// ErrInvalidPath is returned when a path cannot be resolved safely inside a store.
	ErrInvalidPath = errors.New("invalid storage path")

	// ErrBackendUnavailable is returned when a remote backend is not accessible.
	// This could be due to network issues, authentication failures, or service outages.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a backend location URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// UploadError is returned when the remote service rejects or fails an upload.
type UploadError struct {
	// Path is the local source file that could not be uploaded.
	Path string

	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("could not upload asset %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// DeleteError is returned when the remote service fails to destroy an asset.
type DeleteError struct {
	// Filename is the name the caller asked to delete.
	Filename string

	Err error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("could not delete asset %s: %v", e.Filename, e.Err)
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}

// ReadError is returned when the bytes of an asset could not be fetched.
type ReadError struct {
	// Path is the URL or path that was requested.
	Path string

	// StatusCode is the HTTP status of the response, zero when no response arrived.
	StatusCode int

	Err error
}

func (e *ReadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("could not read asset %s: status %d: %v", e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("could not read asset %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Asset is an in-flight upload. Path points at a transient file on local disk.
type Asset struct {
	Path string
	Name string
	Ext  string
}

// ReadOptions selects the asset to read.
type ReadOptions struct {
	// Path is either a local path relative to the local store or a fully-qualified URL.
	Path string
}

// UploadResult is what the remote service reports after storing an asset.
type UploadResult struct {
	PublicID string
	Format   string

	// Version is a backend specific revision marker (for IPFS, the content CID).
	Version string

	Bytes int64
}

// Middleware is a request handler hook that either serves a request or passes it on.
type Middleware func(next http.Handler) http.Handler

// RemoteService is the remote asset-hosting API consumed by the adapter.
type RemoteService interface {
	// Explicit queries an asset by its public identifier without side effects.
	Explicit(ctx context.Context, publicID string) (UploadResult, error)

	// Upload stores the file at localPath. opts carries the desired public_id.
	Upload(ctx context.Context, localPath string, opts UploadOptions) (UploadResult, error)

	// Destroy removes the asset with the given public identifier.
	Destroy(ctx context.Context, publicID string) error

	// URL builds a fetchable URL for an uploaded asset. It performs no I/O.
	URL(result UploadResult, opts DisplayOptions) string

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}

// PublicBaser is implemented by remote services whose assets are all served below a
// single URL base.
type PublicBaser interface {
	PublicBaseURL() string
}

// AvailabilityChecker is implemented by backends that can report whether they are
// reachable.
type AvailabilityChecker interface {
	Available(ctx context.Context) bool
}

// LocalStore is the local filesystem fallback consulted before the remote service.
type LocalStore interface {
	// Exists reports whether filename is present in targetDir (or the store root).
	Exists(ctx context.Context, filename, targetDir string) bool

	// Read returns the file bytes. A missing file yields an error matching ErrNotFound.
	Read(ctx context.Context, opts ReadOptions) ([]byte, error)

	// Serve returns a hook serving stored files directly.
	Serve() Middleware
}

// StorageAdapter is the contract the publishing platform calls into.
type StorageAdapter interface {
	Exists(ctx context.Context, filename, targetDir string) (bool, error)
	Save(ctx context.Context, asset Asset) (string, error)
	Serve() Middleware
	Delete(ctx context.Context, filename string) error
	Read(ctx context.Context, opts ReadOptions) ([]byte, error)
}

// RemoteServiceFactory creates remote services.
type RemoteServiceFactory interface {
	// RemoteServiceFor creates a backend from a location URI.
	// Supports s3:// and ipfs://
	RemoteServiceFor(locationURI string, auth map[string]string) (RemoteService, error)
}
