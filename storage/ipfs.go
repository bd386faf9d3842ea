package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/ruteri/asset-storage-adapter/interfaces"
)

// IPFSService implements interfaces.RemoteService on an IPFS node.
// Assets are written to the node's mutable file system under root/<public_id> and
// served from a gateway by CID.
type IPFSService struct {
	shell       *shell.Shell
	host        string
	port        string
	root        string
	gateway     string
	log         *slog.Logger
	locationURI string
}

// NewIPFSService creates a new IPFS remote service connected to the node API at host:port.
func NewIPFSService(host, port, root, gateway string, log *slog.Logger) (*IPFSService, error) {
	if host == "" {
		return nil, fmt.Errorf("IPFS host is required")
	}
	if gateway == "" {
		gateway = "https://ipfs.io"
	}
	root = "/" + strings.Trim(root, "/")

	// Construct API URL
	apiURL := fmt.Sprintf("%s:%s", host, port)

	return &IPFSService{
		shell:       shell.NewShell(apiURL),
		host:        host,
		port:        port,
		root:        root,
		gateway:     strings.TrimSuffix(gateway, "/"),
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s%s?gateway=%s", apiURL, root, url.QueryEscape(gateway)),
	}, nil
}

// Explicit stats the MFS entry of publicID.
func (b *IPFSService) Explicit(ctx context.Context, publicID string) (interfaces.UploadResult, error) {
	mfsPath := b.mfsPath(publicID)
	stat, err := b.shell.FilesStat(ctx, mfsPath)
	if err != nil {
		b.log.Debug("Asset not found in IPFS",
			slog.String("path", mfsPath),
			"err", err)
		return interfaces.UploadResult{}, fmt.Errorf("%w: %s: %v", interfaces.ErrNotFound, publicID, err)
	}

	return interfaces.UploadResult{
		PublicID: publicID,
		Version:  stat.Hash,
		Bytes:    int64(stat.Size),
	}, nil
}

// Upload writes the file at localPath to MFS and resolves its CID.
func (b *IPFSService) Upload(ctx context.Context, localPath string, opts interfaces.UploadOptions) (interfaces.UploadResult, error) {
	start := time.Now()
	publicID := opts.PublicID()
	if publicID == "" {
		return interfaces.UploadResult{}, fmt.Errorf("public_id is required")
	}

	// Check if the IPFS node is available
	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return interfaces.UploadResult{}, interfaces.ErrBackendUnavailable
	}

	f, err := os.Open(localPath)
	if err != nil {
		return interfaces.UploadResult{}, fmt.Errorf("failed to open upload source: %w", err)
	}
	defer f.Close()

	format, _, err := detectFormat(f, localPath, opts)
	if err != nil {
		return interfaces.UploadResult{}, err
	}

	mfsPath := b.mfsPath(publicID)
	err = b.shell.FilesWrite(ctx, mfsPath, f,
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true))
	if err != nil {
		b.log.Error("Failed to write data to IPFS",
			slog.String("path", mfsPath),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return interfaces.UploadResult{}, fmt.Errorf("failed to write data to IPFS: %w", err)
	}

	stat, err := b.shell.FilesStat(ctx, mfsPath)
	if err != nil {
		return interfaces.UploadResult{}, fmt.Errorf("failed to stat uploaded data: %w", err)
	}

	b.log.Debug("Stored asset in IPFS",
		slog.String("path", mfsPath),
		slog.String("ipfsCID", stat.Hash),
		slog.Duration("duration", time.Since(start)))

	return interfaces.UploadResult{
		PublicID: publicID,
		Format:   format,
		Version:  stat.Hash,
		Bytes:    int64(stat.Size),
	}, nil
}

// Destroy removes the MFS entry of publicID.
func (b *IPFSService) Destroy(ctx context.Context, publicID string) error {
	mfsPath := b.mfsPath(publicID)
	if err := b.shell.FilesRm(ctx, mfsPath, true); err != nil {
		b.log.Error("Failed to remove data from IPFS",
			slog.String("path", mfsPath),
			"err", err)
		return fmt.Errorf("failed to remove data from IPFS: %w", err)
	}
	return nil
}

// URL builds the gateway URL of an uploaded asset from its CID. The filename query
// parameter makes gateways answer with the right name and content type.
func (b *IPFSService) URL(result interfaces.UploadResult, opts interfaces.DisplayOptions) string {
	gateway := b.gateway
	if opts.Secure() && strings.HasPrefix(gateway, "http://") {
		gateway = "https://" + strings.TrimPrefix(gateway, "http://")
	}

	filename := path.Base(result.PublicID)
	if result.Format != "" {
		filename += "." + result.Format
	}

	query := url.Values{}
	query.Set("filename", filename)
	for _, kv := range opts.QueryParams(interfaces.OptionSecure, "filename") {
		query.Add(kv[0], kv[1])
	}
	return fmt.Sprintf("%s/ipfs/%s?%s", gateway, result.Version, query.Encode())
}

// PublicBaseURL returns the gateway path content is served below.
func (b *IPFSService) PublicBaseURL() string {
	return b.gateway + "/ipfs"
}

// Available checks if the IPFS node is accessible.
func (b *IPFSService) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// Name returns a unique identifier for this storage backend.
func (b *IPFSService) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *IPFSService) LocationURI() string {
	return b.locationURI
}

// mfsPath returns the MFS path of publicID.
func (b *IPFSService) mfsPath(publicID string) string {
	return path.Join(b.root, publicID)
}

var (
	_ interfaces.RemoteService       = (*IPFSService)(nil)
	_ interfaces.PublicBaser         = (*IPFSService)(nil)
	_ interfaces.AvailabilityChecker = (*IPFSService)(nil)
)
