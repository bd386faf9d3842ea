package storage

import (
	"testing"

	"github.com/ruteri/asset-storage-adapter/config"
	"github.com/ruteri/asset-storage-adapter/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAdapterFromConfig(t *testing.T) {
	factory := NewRemoteServiceFactory(nil)
	auth := map[string]string{AuthAccessKeyID: "AKID", AuthSecretAccessKey: "secret"}

	t.Run("remote only", func(t *testing.T) {
		cfg := &config.StorageConfig{
			Remote: "s3://assets?region=eu-west-1",
			Auth:   auth,
			Upload: interfaces.UploadOptions{interfaces.OptionFolder: "blog"},
		}

		adapter, err := NewAdapterFromConfig(cfg, factory, nil, nil, nil)
		require.NoError(t, err)
		assert.Nil(t, adapter.local)
		assert.Equal(t, "blog/a", adapter.StorageID("a.png"))
	})

	t.Run("with local fallback", func(t *testing.T) {
		cfg := &config.StorageConfig{
			Remote:          "s3://assets",
			Auth:            auth,
			ServeLocalFiles: true,
			Local:           config.LocalConfig{Path: t.TempDir(), URLPrefix: "/content/images"},
		}

		adapter, err := NewAdapterFromConfig(cfg, factory, nil, nil, nil)
		require.NoError(t, err)
		require.NotNil(t, adapter.local)
		_, ok := adapter.local.(*LocalFileStore)
		assert.True(t, ok)
	})

	t.Run("missing remote", func(t *testing.T) {
		_, err := NewAdapterFromConfig(&config.StorageConfig{}, factory, nil, nil, nil)
		assert.Error(t, err)
	})

	t.Run("unsupported remote", func(t *testing.T) {
		_, err := NewAdapterFromConfig(&config.StorageConfig{Remote: "ftp://x"}, factory, nil, nil, nil)
		assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
	})
}
