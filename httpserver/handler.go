package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ruteri/asset-storage-adapter/interfaces"
)

const (
	// maxUploadSize is the maximum accepted multipart upload (32MB).
	maxUploadSize = 32 << 20

	// uploadField is the multipart field carrying the asset.
	uploadField = "file"
)

// Handler exposes a storage adapter over HTTP.
type Handler struct {
	adapter interfaces.StorageAdapter
	log     *slog.Logger

	// TempDir receives spooled uploads. Empty means the system temp directory.
	TempDir string
}

// NewHandler creates a new HTTP request handler backed by adapter.
func NewHandler(adapter interfaces.StorageAdapter, log *slog.Logger) *Handler {
	return &Handler{
		adapter: adapter,
		log:     log,
	}
}

// Serve returns the adapter's serving hook.
func (h *Handler) Serve() interfaces.Middleware {
	return h.adapter.Serve()
}

// HandleUpload stores a multipart upload and answers with its display URL.
//
// URL format: POST /api/assets
// Request body: multipart form with the asset in the "file" field
// Response: {"url": "<display url>"}
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		h.log.Debug("Invalid upload request", "err", err)
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	tmp, err := os.CreateTemp(h.TempDir, "asset-upload-*")
	if err != nil {
		h.log.Error("Failed to create temp file", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer os.Remove(tmp.Name())

	_, err = io.Copy(tmp, file)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		h.log.Error("Failed to spool upload", "err", err)
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	asset := interfaces.Asset{
		Path: tmp.Name(),
		Name: header.Filename,
		Ext:  filepath.Ext(header.Filename),
	}
	url, err := h.adapter.Save(r.Context(), asset)
	if err != nil {
		h.log.Error("Upload failed", "err", err,
			slog.String("filename", header.Filename),
			slog.Int64("size", header.Size))
		h.writeError(w, err)
		return
	}

	h.log.Info("Stored asset",
		slog.String("filename", header.Filename),
		slog.String("url", url))

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// HandleExists reports whether a filename is stored.
//
// URL format: GET /api/assets/exists?filename=<name>&target_dir=<dir>
// Response: {"exists": true|false}
func (h *Handler) HandleExists(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		http.Error(w, "Missing filename parameter", http.StatusBadRequest)
		return
	}

	exists, err := h.adapter.Exists(r.Context(), filename, r.URL.Query().Get("target_dir"))
	if err != nil {
		h.log.Error("Existence check failed", "err", err, slog.String("filename", filename))
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// HandleDelete removes a stored filename.
//
// URL format: DELETE /api/assets?filename=<name>
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		http.Error(w, "Missing filename parameter", http.StatusBadRequest)
		return
	}

	if err := h.adapter.Delete(r.Context(), filename); err != nil {
		h.log.Error("Delete failed", "err", err, slog.String("filename", filename))
		h.writeError(w, err)
		return
	}

	h.log.Info("Deleted asset", slog.String("filename", filename))
	w.WriteHeader(http.StatusNoContent)
}

// HandleRead returns the raw bytes of an asset, from the local store or the remote URL.
// Absolute URLs are only fetched when they lie below the remote service's public base.
//
// URL format: GET /api/assets/content?path=<path or url>
func (h *Handler) HandleRead(w http.ResponseWriter, r *http.Request) {
	assetPath := r.URL.Query().Get("path")
	if assetPath == "" {
		http.Error(w, "Missing path parameter", http.StatusBadRequest)
		return
	}

	if !h.readAllowed(assetPath) {
		h.log.Warn("Rejected read outside the asset store", slog.String("path", assetPath))
		http.Error(w, "Path is not served by this asset store", http.StatusBadRequest)
		return
	}

	data, err := h.adapter.Read(r.Context(), interfaces.ReadOptions{Path: assetPath})
	if err != nil {
		h.log.Warn("Read failed", "err", err, slog.String("path", assetPath))
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// readAllowed accepts store relative paths and http(s) URLs below the adapter's
// public base URL.
func (h *Handler) readAllowed(p string) bool {
	u, err := url.Parse(p)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return true
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.User != nil {
		return false
	}

	baser, ok := h.adapter.(interfaces.PublicBaser)
	if !ok {
		return false
	}
	base, err := url.Parse(baser.PublicBaseURL())
	if err != nil || base.Host == "" {
		return false
	}
	if !strings.EqualFold(u.Host, base.Host) {
		return false
	}

	basePath := strings.TrimSuffix(base.Path, "/")
	cleaned := path.Clean("/" + u.Path)
	return basePath == "" || cleaned == basePath || strings.HasPrefix(cleaned, basePath+"/")
}

// RemoteAvailable reports whether the adapter's remote backend is reachable. Adapters
// that cannot tell count as available.
func (h *Handler) RemoteAvailable(ctx context.Context) bool {
	if checker, ok := h.adapter.(interfaces.AvailabilityChecker); ok {
		return checker.Available(ctx)
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	http.Error(w, err.Error(), status)
}

// StatusFor maps adapter errors to HTTP status codes.
func StatusFor(err error) int {
	var (
		readErr   *interfaces.ReadError
		uploadErr *interfaces.UploadError
		deleteErr *interfaces.DeleteError
	)
	switch {
	case errors.Is(err, interfaces.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.As(err, &readErr):
		if readErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.Is(err, interfaces.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &uploadErr), errors.As(err, &deleteErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
