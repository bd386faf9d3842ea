package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/asset-storage-adapter/interfaces"
)

// Credential keys read from the auth block.
const (
	AuthAccessKeyID     = "access_key_id"
	AuthSecretAccessKey = "secret_access_key"
	AuthRegion          = "region"
	AuthEndpoint        = "endpoint"
)

// RemoteServiceFactory creates remote services from location URIs.
type RemoteServiceFactory struct {
	log *slog.Logger
}

// NewRemoteServiceFactory creates a new factory instance.
func NewRemoteServiceFactory(logger *slog.Logger) *RemoteServiceFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteServiceFactory{
		log: logger,
	}
}

// RemoteServiceFor creates a remote service from a location URI.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS node, served through a gateway
//
// auth carries the credentials of the configuration; credentials embedded in the URI
// take precedence.
func (sf *RemoteServiceFactory) RemoteServiceFor(locationURI string, auth map[string]string) (interfaces.RemoteService, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "s3":
		return sf.createS3Service(u, auth)
	case "ipfs":
		return sf.createIPFSService(u)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme: %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// createS3Service creates an S3 or S3-compatible remote service.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/path/?region=us-west-2&endpoint=custom.s3.com&public_url=https://cdn.example.com&path_style=true
func (sf *RemoteServiceFactory) createS3Service(u *url.URL, auth map[string]string) (interfaces.RemoteService, error) {
	sf.log.Debug("Creating S3 remote service", slog.String("bucket", u.Host))

	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing bucket name", interfaces.ErrInvalidLocationURI)
	}

	query := u.Query()
	opts := S3Options{
		Bucket:    u.Host,
		Prefix:    strings.TrimPrefix(u.Path, "/"),
		Region:    firstNonEmpty(query.Get("region"), auth[AuthRegion], "us-east-1"),
		Endpoint:  firstNonEmpty(query.Get("endpoint"), auth[AuthEndpoint]),
		PublicURL: query.Get("public_url"),
		PathStyle: query.Get("path_style") == "true",
	}

	if u.User != nil {
		// Extract credentials from URI (less secure)
		opts.AccessKey = u.User.Username()
		opts.SecretKey, _ = u.User.Password()
		sf.log.Debug("Using embedded credentials for write access")
	} else if auth[AuthAccessKeyID] != "" {
		opts.AccessKey = auth[AuthAccessKeyID]
		opts.SecretKey = auth[AuthSecretAccessKey]
		sf.log.Debug("Using configured credentials for write access")
	}

	return NewS3Service(opts, sf.log)
}

// createIPFSService creates an IPFS remote service.
// URI format: ipfs://host:port/root?gateway=https://ipfs.io
func (sf *RemoteServiceFactory) createIPFSService(u *url.URL) (interfaces.RemoteService, error) {
	sf.log.Debug("Creating IPFS remote service", slog.String("host", u.Host))

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "5001" // Default IPFS API port
	}

	root := u.Path
	if strings.Trim(root, "/") == "" {
		root = "/assets"
	}

	return NewIPFSService(host, port, root, u.Query().Get("gateway"), sf.log)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var _ interfaces.RemoteServiceFactory = (*RemoteServiceFactory)(nil)
