package storage

import (
	"path"
	"regexp"
	"strings"

	"github.com/ruteri/asset-storage-adapter/interfaces"
)

var unsafeFileNameChars = regexp.MustCompile(`[^\w@. -]`)

// SanitizeFileName replaces every character that is unsafe in a remote identifier or a
// URL path segment with "-". Case is preserved and the function is idempotent.
func SanitizeFileName(name string) string {
	return unsafeFileNameChars.ReplaceAllString(name, "-")
}

// IdentifierMapper derives storage paths and identifiers from raw filenames.
// It is a pure function of the filename and the configured upload folder.
type IdentifierMapper struct {
	folder string
}

// NewIdentifierMapper creates a mapper using the folder of the given upload options.
func NewIdentifierMapper(opts interfaces.UploadOptions) IdentifierMapper {
	return IdentifierMapper{folder: opts.Folder()}
}

// StorageFile returns the sanitized base name of filename, prefixed with the folder
// when one is configured. Any directory passed by the caller is discarded.
func (m IdentifierMapper) StorageFile(filename string) string {
	file := SanitizeFileName(baseName(filename))
	if m.folder != "" {
		return path.Join(m.folder, file)
	}
	return file
}

// StorageID returns StorageFile without its extension. It is the public identifier
// used by the remote service.
func (m IdentifierMapper) StorageID(filename string) string {
	file := m.StorageFile(filename)
	dir, base := path.Split(file)
	name, _ := splitExt(base)
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}

// baseName returns the last element of filename treating both separators alike.
func baseName(filename string) string {
	return path.Base(strings.ReplaceAll(filename, `\`, "/"))
}

// splitExt splits a base name into name and extension (with its dot).
// Names made of dots only and names whose sole dot is leading have no extension.
func splitExt(base string) (string, string) {
	if strings.Trim(base, ".") == "" {
		return base, ""
	}
	idx := strings.LastIndex(base, ".")
	if idx <= 0 {
		return base, ""
	}
	return base[:idx], base[idx:]
}

// formatOf returns the lower-cased extension of filename without its dot.
func formatOf(filename string) string {
	_, ext := splitExt(baseName(filename))
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
