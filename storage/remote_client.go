package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ruteri/asset-storage-adapter/interfaces"
)

// RemoteAssetClient wraps the remote service primitives and the raw HTTP fetch used for reads.
type RemoteAssetClient struct {
	service interfaces.RemoteService
	client  *http.Client
}

// NewRemoteAssetClient creates a client for service. When httpClient is nil a client
// with a 30 second timeout is used.
func NewRemoteAssetClient(service interfaces.RemoteService, httpClient *http.Client) *RemoteAssetClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &RemoteAssetClient{
		service: service,
		client:  httpClient,
	}
}

// ProbeExists reports whether the remote service knows publicID.
// Any error from the service is treated as "does not exist"; this never fails.
func (c *RemoteAssetClient) ProbeExists(ctx context.Context, publicID string) bool {
	_, err := c.service.Explicit(ctx, publicID)
	return err == nil
}

// Upload sends the file at localPath with the merged options.
func (c *RemoteAssetClient) Upload(ctx context.Context, localPath string, opts interfaces.UploadOptions) (interfaces.UploadResult, error) {
	result, err := c.service.Upload(ctx, localPath, opts)
	if err != nil {
		return interfaces.UploadResult{}, &interfaces.UploadError{Path: localPath, Err: err}
	}
	return result, nil
}

// Destroy removes publicID. filename is the caller supplied name reported on failure.
func (c *RemoteAssetClient) Destroy(ctx context.Context, publicID, filename string) error {
	if err := c.service.Destroy(ctx, publicID); err != nil {
		return &interfaces.DeleteError{Filename: filename, Err: err}
	}
	return nil
}

// BuildURL constructs the display URL of an uploaded asset.
func (c *RemoteAssetClient) BuildURL(result interfaces.UploadResult, opts interfaces.DisplayOptions) string {
	return c.service.URL(result, opts)
}

// FetchBytes performs a GET against a fully-qualified URL.
func (c *RemoteAssetClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &interfaces.ReadError{Path: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &interfaces.ReadError{Path: url, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &interfaces.ReadError{Path: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected response: %s", resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &interfaces.ReadError{Path: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	return data, nil
}
