package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ruteri/asset-storage-adapter/interfaces"
)

// Client implements interfaces.StorageAdapter against a remote asset server.
type Client struct {
	// ServerAddr is the base URL of the asset server
	ServerAddr string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := strings.TrimSuffix(c.ServerAddr, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Exists asks the server whether filename is stored.
func (c *Client) Exists(ctx context.Context, filename, targetDir string) (bool, error) {
	query := url.Values{"filename": {filename}}
	if targetDir != "" {
		query.Set("target_dir", targetDir)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/assets/exists", query), nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return false, fmt.Errorf("could not request exists endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, responseError("exists", resp)
	}

	var parsed struct {
		Exists bool `json:"exists"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, fmt.Errorf("could not parse exists response: %w", err)
	}
	return parsed.Exists, nil
}

// Save uploads the file at asset.Path under asset.Name and returns its display URL.
func (c *Client) Save(ctx context.Context, asset interfaces.Asset) (string, error) {
	name := asset.Name
	if name == "" {
		name = filepath.Base(asset.Path)
	}

	f, err := os.Open(asset.Path)
	if err != nil {
		return "", &interfaces.UploadError{Path: asset.Path, Err: err}
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(uploadField, name)
	if err != nil {
		return "", &interfaces.UploadError{Path: asset.Path, Err: err}
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", &interfaces.UploadError{Path: asset.Path, Err: err}
	}
	if err := mw.Close(); err != nil {
		return "", &interfaces.UploadError{Path: asset.Path, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/assets", nil), &body)
	if err != nil {
		return "", &interfaces.UploadError{Path: asset.Path, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", &interfaces.UploadError{Path: asset.Path, Err: fmt.Errorf("could not request upload endpoint: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &interfaces.UploadError{Path: asset.Path, Err: responseError("upload", resp)}
	}

	var parsed struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("could not parse upload response: %w", err)
	}
	return parsed.URL, nil
}

// Serve is a pass-through: the server serves its own local files.
func (c *Client) Serve() interfaces.Middleware {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// Delete asks the server to remove filename.
func (c *Client) Delete(ctx context.Context, filename string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint("/api/assets", url.Values{"filename": {filename}}), nil)
	if err != nil {
		return &interfaces.DeleteError{Filename: filename, Err: err}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &interfaces.DeleteError{Filename: filename, Err: fmt.Errorf("could not request delete endpoint: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return &interfaces.DeleteError{Filename: filename, Err: responseError("delete", resp)}
	}
	return nil
}

// Read fetches the bytes of the asset at opts.Path through the server.
func (c *Client) Read(ctx context.Context, opts interfaces.ReadOptions) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/assets/content", url.Values{"path": {opts.Path}}), nil)
	if err != nil {
		return nil, &interfaces.ReadError{Path: opts.Path, Err: err}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &interfaces.ReadError{Path: opts.Path, Err: fmt.Errorf("could not request content endpoint: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &interfaces.ReadError{Path: opts.Path, StatusCode: resp.StatusCode, Err: responseError("content", resp)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &interfaces.ReadError{Path: opts.Path, StatusCode: resp.StatusCode, Err: err}
	}
	return data, nil
}

func responseError(endpoint string, resp *http.Response) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil || len(bodyBytes) == 0 {
		return fmt.Errorf("%s endpoint returned status %d", endpoint, resp.StatusCode)
	}
	return fmt.Errorf("%s endpoint returned error %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
}

var _ interfaces.StorageAdapter = (*Client)(nil)
