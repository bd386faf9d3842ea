// Package interfaces defines the contracts of the asset storage adapter.
//
// StorageAdapter is what the publishing platform calls: Exists, Save, Serve, Delete and
// Read. It is built from a RemoteService (the hosted asset API) and an optional
// LocalStore consulted before the remote side.
//
// Failures are reported with the sentinels ErrNotFound, ErrInvalidPath,
// ErrBackendUnavailable and ErrInvalidLocationURI, and with the typed errors UploadError,
// DeleteError and ReadError, which carry the source path, filename or URL of the failed
// call. All of them can be matched with errors.Is and errors.As.
package interfaces
