package storage

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ruteri/asset-storage-adapter/interfaces"
)

// AdapterOptions configures an Adapter.
type AdapterOptions struct {
	// Upload is merged into every upload. It is copied at construction.
	Upload interfaces.UploadOptions

	// Display drives URL construction. It is copied at construction.
	Display interfaces.DisplayOptions

	// Local is the local fallback store. Nil disables the fallback.
	Local interfaces.LocalStore

	// HTTPClient is used for remote reads. Nil selects a default client.
	HTTPClient *http.Client

	// Observer records operation telemetry. Nil disables it.
	Observer Observer
}

// Adapter implements interfaces.StorageAdapter on top of a remote service with an
// optional local fallback store.
type Adapter struct {
	service  interfaces.RemoteService
	mapper   IdentifierMapper
	remote   *RemoteAssetClient
	local    interfaces.LocalStore
	reader   *ReadOrchestrator
	upload   interfaces.UploadOptions
	display  interfaces.DisplayOptions
	observer Observer
}

// NewAdapter creates an adapter storing assets in service.
func NewAdapter(service interfaces.RemoteService, opts AdapterOptions) *Adapter {
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	remote := NewRemoteAssetClient(service, opts.HTTPClient)
	upload := opts.Upload.Clone()

	return &Adapter{
		service:  service,
		mapper:   NewIdentifierMapper(upload),
		remote:   remote,
		local:    opts.Local,
		reader:   NewReadOrchestrator(opts.Local, remote, observer),
		upload:   upload,
		display:  opts.Display.Clone(),
		observer: observer,
	}
}

// Exists reports whether filename is stored. A local hit short-circuits the remote
// probe. The returned error is always nil: probe failures count as "not stored".
func (a *Adapter) Exists(ctx context.Context, filename, targetDir string) (bool, error) {
	start := time.Now()
	if a.local != nil && a.local.Exists(ctx, filename, targetDir) {
		a.observer.RecordOperation(OpExists, time.Since(start), nil)
		return true, nil
	}

	exists := a.remote.ProbeExists(ctx, a.mapper.StorageID(filename))
	a.observer.RecordOperation(OpExists, time.Since(start), nil)
	return exists, nil
}

// Save uploads the asset and returns its display URL.
func (a *Adapter) Save(ctx context.Context, asset interfaces.Asset) (string, error) {
	start := time.Now()

	name := asset.Name
	if strings.TrimSpace(name) == "" {
		name = baseName(asset.Path)
	}

	opts := a.upload.Clone()
	opts[interfaces.OptionPublicID] = a.mapper.StorageID(name)
	if format := formatOf(name); format != "" {
		opts[interfaces.OptionFormat] = format
	} else if asset.Ext != "" {
		opts[interfaces.OptionFormat] = strings.ToLower(strings.TrimPrefix(asset.Ext, "."))
	}

	result, err := a.remote.Upload(ctx, asset.Path, opts)
	a.observer.RecordOperation(OpSave, time.Since(start), err)
	if err != nil {
		return "", err
	}
	a.observer.RecordUpload(result.Bytes)

	return a.remote.BuildURL(result, a.display), nil
}

// Serve returns the local store's serving hook, or a pass-through when the local
// fallback is disabled.
func (a *Adapter) Serve() interfaces.Middleware {
	if a.local != nil {
		return a.local.Serve()
	}
	return func(next http.Handler) http.Handler {
		return next
	}
}

// Delete removes filename from the remote service.
func (a *Adapter) Delete(ctx context.Context, filename string) error {
	start := time.Now()
	err := a.remote.Destroy(ctx, a.mapper.StorageID(filename), filename)
	a.observer.RecordOperation(OpDelete, time.Since(start), err)
	return err
}

// Read returns the bytes of the asset at opts.Path.
func (a *Adapter) Read(ctx context.Context, opts interfaces.ReadOptions) ([]byte, error) {
	start := time.Now()
	data, err := a.reader.Read(ctx, opts)
	a.observer.RecordOperation(OpRead, time.Since(start), err)
	return data, err
}

// PublicBaseURL returns the URL base remote assets are served below, or "" when the
// remote service has none.
func (a *Adapter) PublicBaseURL() string {
	if baser, ok := a.service.(interfaces.PublicBaser); ok {
		return baser.PublicBaseURL()
	}
	return ""
}

// Available reports whether the remote service is reachable. Services that cannot tell
// are assumed to be.
func (a *Adapter) Available(ctx context.Context) bool {
	if checker, ok := a.service.(interfaces.AvailabilityChecker); ok {
		return checker.Available(ctx)
	}
	return true
}

// StorageID exposes the identifier derived for filename.
func (a *Adapter) StorageID(filename string) string {
	return a.mapper.StorageID(filename)
}

var (
	_ interfaces.StorageAdapter      = (*Adapter)(nil)
	_ interfaces.PublicBaser         = (*Adapter)(nil)
	_ interfaces.AvailabilityChecker = (*Adapter)(nil)
)
