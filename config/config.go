package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ruteri/asset-storage-adapter/interfaces"
	"gopkg.in/yaml.v3"
)

// DefaultLocalPath is where local files live when the fallback is enabled without a path.
const DefaultLocalPath = "./content/images"

// Configuration keys that are never treated as top-level credentials.
var knownKeys = map[string]bool{
	"remote":          true,
	"auth":            true,
	"upload":          true,
	"display":         true,
	"configuration":   true,
	"serveLocalFiles": true,
	"local":           true,
}

// LocalConfig locates the local fallback store.
type LocalConfig struct {
	// Path is the directory holding local files.
	Path string

	// URLPrefix is the request path prefix the serve hook answers.
	URLPrefix string
}

// StorageConfig is the normalized adapter configuration. Treat it as read-only once built.
type StorageConfig struct {
	// Remote is the location URI of the remote backend (s3://..., ipfs://...).
	Remote string

	// Auth holds credentials passed through to the remote backend.
	Auth map[string]string

	// Upload is merged into every upload call and may carry a folder.
	Upload interfaces.UploadOptions

	// Display drives display URL construction.
	Display interfaces.DisplayOptions

	// ServeLocalFiles enables the local fallback store.
	ServeLocalFiles bool

	Local LocalConfig
}

// Load reads a YAML configuration file, normalizes it and applies environment overrides.
// A missing file yields the configuration described by the environment alone.
func Load(path string) (*StorageConfig, error) {
	raw := map[string]any{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return nil, fmt.Errorf("unmarshal config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Parse normalizes a raw configuration object.
//
// upload falls back to the legacy configuration.file block and display to
// configuration.image. Without an auth block, the top-level scalar fields that are not
// configuration keys are taken as credentials.
func Parse(raw map[string]any) (*StorageConfig, error) {
	if raw == nil {
		raw = map[string]any{}
	}

	cfg := &StorageConfig{
		Auth:    map[string]string{},
		Upload:  interfaces.UploadOptions{},
		Display: interfaces.DisplayOptions{},
	}

	if v, ok := raw["remote"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("remote must be a string, got %T", v)
		}
		cfg.Remote = strings.TrimSpace(s)
	}

	if v, ok := raw["auth"]; ok && v != nil {
		auth, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("auth must be a mapping, got %T", v)
		}
		cfg.Auth = stringifyMap(auth)
	} else {
		for k, v := range raw {
			if knownKeys[k] {
				continue
			}
			if s, ok := scalarString(v); ok {
				cfg.Auth[k] = s
			}
		}
	}

	legacy, _ := raw["configuration"].(map[string]any)

	upload, err := optionMap(raw, legacy, "upload", "file")
	if err != nil {
		return nil, err
	}
	cfg.Upload = interfaces.UploadOptions(upload)

	display, err := optionMap(raw, legacy, "display", "image")
	if err != nil {
		return nil, err
	}
	cfg.Display = interfaces.DisplayOptions(display)

	if v, ok := raw["serveLocalFiles"]; ok {
		b, err := parseBool(v)
		if err != nil {
			return nil, fmt.Errorf("serveLocalFiles: %w", err)
		}
		cfg.ServeLocalFiles = b
	}

	if v, ok := raw["local"]; ok && v != nil {
		local, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("local must be a mapping, got %T", v)
		}
		cfg.Local.Path, _ = scalarString(local["path"])
		cfg.Local.URLPrefix, _ = scalarString(local["url_prefix"])
	}

	return cfg, nil
}

// Validate checks that the configuration can build an adapter.
func (c *StorageConfig) Validate() error {
	if c.Remote == "" {
		return errors.New("remote backend location is required")
	}
	return nil
}

// LocalPath returns the local store directory, defaulting when unset.
func (c *StorageConfig) LocalPath() string {
	if c.Local.Path == "" {
		return DefaultLocalPath
	}
	return c.Local.Path
}

// WithAuth returns a copy of the configuration using auth as credentials.
func (c *StorageConfig) WithAuth(auth map[string]string) *StorageConfig {
	clone := *c
	clone.Auth = auth
	return &clone
}

func (c *StorageConfig) applyEnvOverrides() {
	if v := os.Getenv("ASSETS_REMOTE"); v != "" {
		c.Remote = v
	}
	if v := os.Getenv("ASSETS_SERVE_LOCAL_FILES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ServeLocalFiles = b
		}
	}
	if v := os.Getenv("ASSETS_LOCAL_PATH"); v != "" {
		c.Local.Path = v
	}
	if v := os.Getenv("ASSETS_UPLOAD_FOLDER"); v != "" {
		upload := c.Upload.Clone()
		upload[interfaces.OptionFolder] = v
		c.Upload = upload
	}
}

// Summary returns a configuration snapshot without credential values, suitable for logs.
func (c *StorageConfig) Summary() map[string]any {
	authKeys := make([]string, 0, len(c.Auth))
	for k := range c.Auth {
		authKeys = append(authKeys, k)
	}
	sort.Strings(authKeys)

	return map[string]any{
		"remote":          c.Remote,
		"auth_keys":       authKeys,
		"upload":          map[string]any(c.Upload),
		"display":         map[string]any(c.Display),
		"serveLocalFiles": c.ServeLocalFiles,
		"local": map[string]any{
			"path":       c.Local.Path,
			"url_prefix": c.Local.URLPrefix,
		},
	}
}

// optionMap returns a copy of raw[key], or of legacy[legacyKey] when key is absent.
func optionMap(raw, legacy map[string]any, key, legacyKey string) (map[string]any, error) {
	src, ok := raw[key]
	if !ok || src == nil {
		src = legacy[legacyKey]
		key = "configuration." + legacyKey
	}
	if src == nil {
		return map[string]any{}, nil
	}
	m, ok := src.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a mapping, got %T", key, src)
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, nil
}

func stringifyMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := scalarString(v); ok {
			out[k] = s
		}
	}
	return out
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(t), true
	default:
		return "", false
	}
}

func parseBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(t)
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}
