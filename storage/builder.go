package storage

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ruteri/asset-storage-adapter/config"
	"github.com/ruteri/asset-storage-adapter/interfaces"
)

// NewAdapterFromConfig builds an adapter from a normalized configuration. The remote
// service is created by factory from cfg.Remote and cfg.Auth; the local fallback store is
// created only when cfg.ServeLocalFiles is set.
func NewAdapterFromConfig(cfg *config.StorageConfig, factory interfaces.RemoteServiceFactory, observer Observer, httpClient *http.Client, log *slog.Logger) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	service, err := factory.RemoteServiceFor(cfg.Remote, cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote service: %w", err)
	}

	var local interfaces.LocalStore
	if cfg.ServeLocalFiles {
		fileStore, err := NewLocalFileStore(cfg.LocalPath(), cfg.Local.URLPrefix, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create local store: %w", err)
		}
		local = fileStore
		log.Info("Local fallback enabled", slog.String("location", fileStore.LocationURI()))
	}

	log.Info("Storage adapter configured",
		slog.String("remote", service.Name()),
		slog.String("location", service.LocationURI()),
		slog.Bool("serveLocalFiles", cfg.ServeLocalFiles))

	return NewAdapter(service, AdapterOptions{
		Upload:     cfg.Upload,
		Display:    cfg.Display,
		Local:      local,
		HTTPClient: httpClient,
		Observer:   observer,
	}), nil
}
