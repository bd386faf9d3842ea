package storage

import (
	"testing"

	"github.com/ruteri/asset-storage-adapter/interfaces"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Photo Name.PNG", "Photo Name.PNG"},
		{"a/b\\c.png", "a-b-c.png"},
		{"what?#[x].jpg", "what---x-.jpg"},
		{"me@host.gif", "me@host.gif"},
		{"über.png", "-ber.png"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SanitizeFileName(tt.in)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, got, SanitizeFileName(got), "sanitizing twice must be stable")
		})
	}
}

func TestIdentifierMapper(t *testing.T) {
	tests := []struct {
		name        string
		folder      string
		filename    string
		storageFile string
		storageID   string
	}{
		{
			name:        "folder prepended and case preserved",
			folder:      "blog",
			filename:    "Photo Name.PNG",
			storageFile: "blog/Photo Name.PNG",
			storageID:   "blog/Photo Name",
		},
		{
			name:        "no folder",
			filename:    "cat.jpg",
			storageFile: "cat.jpg",
			storageID:   "cat",
		},
		{
			name:        "caller directories discarded",
			folder:      "blog",
			filename:    "2024/05/cat.jpg",
			storageFile: "blog/cat.jpg",
			storageID:   "blog/cat",
		},
		{
			name:        "windows separators discarded",
			filename:    `C:\uploads\cat.jpg`,
			storageFile: "cat.jpg",
			storageID:   "cat",
		},
		{
			name:        "only last extension stripped",
			filename:    "archive.tar.gz",
			storageFile: "archive.tar.gz",
			storageID:   "archive.tar",
		},
		{
			name:        "dotfile keeps its name",
			filename:    ".hidden",
			storageFile: ".hidden",
			storageID:   ".hidden",
		},
		{
			name:        "nested folder",
			folder:      "site/images/",
			filename:    "a b.png",
			storageFile: "site/images/a b.png",
			storageID:   "site/images/a b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapper := NewIdentifierMapper(interfaces.UploadOptions{interfaces.OptionFolder: tt.folder})
			assert.Equal(t, tt.storageFile, mapper.StorageFile(tt.filename))
			assert.Equal(t, tt.storageID, mapper.StorageID(tt.filename))
			assert.Equal(t, mapper.StorageID(tt.filename), mapper.StorageID(tt.filename))
		})
	}
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, "png", formatOf("Photo.PNG"))
	assert.Equal(t, "gz", formatOf("dir/archive.tar.gz"))
	assert.Equal(t, "", formatOf("/tmp/upload-123"))
	assert.Equal(t, "", formatOf(".env"))
	assert.Equal(t, "", formatOf("..."))
}
