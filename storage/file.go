package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ruteri/asset-storage-adapter/interfaces"
)

// LocalFileStore implements interfaces.LocalStore on the local file system.
// Files live under baseDir and are served under urlPrefix.
type LocalFileStore struct {
	baseDir     string
	urlPrefix   string
	log         *slog.Logger
	locationURI string
}

// NewLocalFileStore creates a local store rooted at baseDir, creating it if needed.
// urlPrefix defaults to "/content/images".
func NewLocalFileStore(baseDir, urlPrefix string, log *slog.Logger) (*LocalFileStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	// Ensure base directory exists
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	if urlPrefix == "" {
		urlPrefix = "/content/images"
	}
	if !strings.HasPrefix(urlPrefix, "/") {
		urlPrefix = "/" + urlPrefix
	}
	if log == nil {
		log = slog.Default()
	}

	return &LocalFileStore{
		baseDir:     abs,
		urlPrefix:   strings.TrimSuffix(urlPrefix, "/"),
		log:         log,
		locationURI: fmt.Sprintf("file://%s", abs),
	}, nil
}

// Exists reports whether filename is a regular file in targetDir. The file is looked up
// under the same sanitized base name Save stores it with. An empty targetDir means the
// store root; relative and absolute ones must stay below it.
func (b *LocalFileStore) Exists(ctx context.Context, filename, targetDir string) bool {
	dir, err := b.relativeDir(targetDir)
	if err != nil {
		b.log.Debug("Rejected local lookup directory", "err", err, slog.String("dir", targetDir))
		return false
	}

	rel := SanitizeFileName(baseName(filename))
	if dir != "" {
		rel = dir + "/" + rel
	}
	filePath, err := b.resolve(rel)
	if err != nil {
		b.log.Debug("Rejected local lookup", "err", err, slog.String("filename", filename))
		return false
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			b.log.Debug("Failed to stat local file", "err", err,
				slog.String("filename", filename),
				slog.String("path", filePath))
		}
		return false
	}
	return !info.IsDir()
}

// Read returns the bytes stored for opts.Path. The path may be store relative, carry the
// serving URL prefix, or be a full URL whose path names a stored file.
func (b *LocalFileStore) Read(ctx context.Context, opts interfaces.ReadOptions) ([]byte, error) {
	filePath, err := b.resolve(b.relativePath(opts.Path))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrNotFound, opts.Path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	b.log.Debug("Fetched content from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return data, nil
}

// Serve returns a middleware answering GET and HEAD requests under the URL prefix with
// the stored file. Anything else, including missing files, goes to next.
func (b *LocalFileStore) Serve() interfaces.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if !strings.HasPrefix(r.URL.Path, b.urlPrefix+"/") {
				next.ServeHTTP(w, r)
				return
			}

			filePath, err := b.resolve(strings.TrimPrefix(r.URL.Path, b.urlPrefix+"/"))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			info, err := os.Stat(filePath)
			if err != nil || info.IsDir() {
				next.ServeHTTP(w, r)
				return
			}
			http.ServeFile(w, r, filePath)
		})
	}
}

// Save writes r under name, relative to the store root, and returns the serving URL.
func (b *LocalFileStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if r == nil {
		return "", fmt.Errorf("reader is required")
	}
	rel := filepath.ToSlash(filepath.Join(filepath.Dir(name), SanitizeFileName(baseName(name))))
	filePath, err := b.resolve(rel)
	if err != nil {
		return "", err
	}

	// Create parent directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	writeErr := func() error {
		if _, err := io.Copy(tmp, r); err != nil {
			tmp.Close()
			return err
		}
		return tmp.Close()
	}()
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write file: %w", writeErr)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to finalize file: %w", err)
	}

	b.log.Debug("Stored content in file", slog.String("path", filePath))

	return b.urlPrefix + "/" + rel, nil
}

// Delete removes name from the store. Removing a missing file is not an error.
func (b *LocalFileStore) Delete(ctx context.Context, name string) error {
	filePath, err := b.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// Name returns a unique identifier for this store.
func (b *LocalFileStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// LocationURI returns the URI that identifies this store.
func (b *LocalFileStore) LocationURI() string {
	return b.locationURI
}

// relativePath strips URL scheme/host and the serving prefix from p.
func (b *LocalFileStore) relativePath(p string) string {
	if u, err := url.Parse(p); err == nil && u.Scheme != "" && u.Host != "" {
		p = u.Path
	}
	if strings.HasPrefix(p, b.urlPrefix+"/") {
		p = strings.TrimPrefix(p, b.urlPrefix+"/")
	}
	return p
}

// relativeDir maps targetDir to a slash separated directory relative to baseDir.
// Absolute directories outside baseDir are rejected; ".." in relative ones is left
// for resolve to reject.
func (b *LocalFileStore) relativeDir(targetDir string) (string, error) {
	if targetDir == "" {
		return "", nil
	}
	if !filepath.IsAbs(targetDir) {
		return strings.Trim(filepath.ToSlash(targetDir), "/"), nil
	}

	rel, err := filepath.Rel(b.baseDir, filepath.Clean(targetDir))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", interfaces.ErrInvalidPath
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

// resolve maps a store relative path to an absolute path below baseDir.
func (b *LocalFileStore) resolve(p string) (string, error) {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		return "", interfaces.ErrInvalidPath
	}
	for _, segment := range strings.Split(filepath.ToSlash(trimmed), "/") {
		if segment == ".." {
			return "", interfaces.ErrInvalidPath
		}
	}

	cleaned := strings.TrimPrefix(filepath.Clean("/"+trimmed), string(filepath.Separator))
	if cleaned == "" || cleaned == "." {
		return "", interfaces.ErrInvalidPath
	}

	absPath := filepath.Join(b.baseDir, cleaned)
	rel, err := filepath.Rel(b.baseDir, absPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", interfaces.ErrInvalidPath
	}
	return absPath, nil
}

var _ interfaces.LocalStore = (*LocalFileStore)(nil)
