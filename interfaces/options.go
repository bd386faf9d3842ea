package interfaces

import (
	"fmt"
	"sort"
	"strings"
)

// Option keys understood by the remote services.
const (
	OptionFolder      = "folder"
	OptionPublicID    = "public_id"
	OptionContentType = "content_type"
	OptionFormat      = "format"
	OptionSecure      = "secure"
)

// UploadOptions is merged into every upload call. It may carry a folder.
type UploadOptions map[string]any

// Clone returns an independent shallow copy. A nil map clones to an empty one.
func (o UploadOptions) Clone() UploadOptions {
	clone := make(UploadOptions, len(o)+1)
	for k, v := range o {
		clone[k] = v
	}
	return clone
}

// Folder returns the configured folder or the empty string.
func (o UploadOptions) Folder() string {
	return optionString(o, OptionFolder)
}

// PublicID returns the desired public identifier of the upload.
func (o UploadOptions) PublicID() string {
	return optionString(o, OptionPublicID)
}

// ContentType returns an explicit content type, if any.
func (o UploadOptions) ContentType() string {
	return optionString(o, OptionContentType)
}

// Format returns the desired stored format (extension without dot), if any.
func (o UploadOptions) Format() string {
	return strings.TrimPrefix(strings.ToLower(optionString(o, OptionFormat)), ".")
}

// DisplayOptions drive URL construction (transformations, secure flag, etc.).
type DisplayOptions map[string]any

// Clone returns an independent shallow copy.
func (o DisplayOptions) Clone() DisplayOptions {
	clone := make(DisplayOptions, len(o))
	for k, v := range o {
		clone[k] = v
	}
	return clone
}

// Secure reports whether URLs should use https.
func (o DisplayOptions) Secure() bool {
	switch v := o[OptionSecure].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1" || v == "yes"
	default:
		return false
	}
}

// QueryParams returns every option except the given keys as sorted key/value pairs,
// rendered as strings. Nested values are skipped.
func (o DisplayOptions) QueryParams(skip ...string) [][2]string {
	skipped := make(map[string]bool, len(skip))
	for _, k := range skip {
		skipped[k] = true
	}

	keys := make([]string, 0, len(o))
	for k := range o {
		if !skipped[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	params := make([][2]string, 0, len(keys))
	for _, k := range keys {
		switch v := o[k].(type) {
		case map[string]any, []any:
			continue
		case nil:
			continue
		default:
			params = append(params, [2]string{k, fmt.Sprint(v)})
		}
	}
	return params
}

func optionString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
