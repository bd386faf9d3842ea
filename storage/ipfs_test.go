package storage

import (
	"context"
	"log/slog"
	"testing"

	"github.com/ruteri/asset-storage-adapter/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPFSService_URL(t *testing.T) {
	svc, err := NewIPFSService("127.0.0.1", "5001", "assets/", "http://gateway.local/", slog.Default())
	require.NoError(t, err)

	result := interfaces.UploadResult{PublicID: "blog/Photo Name", Format: "png", Version: "QmHash"}

	assert.Equal(t,
		"http://gateway.local/ipfs/QmHash?filename=Photo+Name.png",
		svc.URL(result, interfaces.DisplayOptions{}))

	assert.Equal(t,
		"https://gateway.local/ipfs/QmHash?filename=Photo+Name.png&w=100",
		svc.URL(result, interfaces.DisplayOptions{interfaces.OptionSecure: true, "w": 100, "filename": "ignored"}))

	assert.Equal(t, "http://gateway.local/ipfs", svc.PublicBaseURL())
}

func TestIPFSService_Identity(t *testing.T) {
	svc, err := NewIPFSService("127.0.0.1", "5001", "", "", slog.Default())
	require.NoError(t, err)

	assert.Equal(t, "ipfs-127.0.0.1-5001", svc.Name())
	assert.Equal(t, "ipfs://127.0.0.1:5001/?gateway=https%3A%2F%2Fipfs.io", svc.LocationURI())
	assert.Equal(t, "/blog/a", svc.mfsPath("blog/a"))

	_, err = NewIPFSService("", "5001", "/assets", "", slog.Default())
	assert.Error(t, err)
}

func TestIPFSService_UnreachableNode(t *testing.T) {
	ctx := context.Background()
	svc, err := NewIPFSService("127.0.0.1", "1", "/assets", "", slog.Default())
	require.NoError(t, err)

	src := writeTempFile(t, "a.png", []byte("a"))
	_, err = svc.Upload(ctx, src, interfaces.UploadOptions{interfaces.OptionPublicID: "a"})
	assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)

	_, err = svc.Explicit(ctx, "a")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	assert.False(t, svc.Available(ctx))
}
