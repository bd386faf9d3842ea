package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/ruteri/asset-storage-adapter/interfaces"
)

// S3Options configures an S3Service.
type S3Options struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string

	// PublicURL is the base URL assets are served from, e.g. a CDN in front of the bucket.
	PublicURL string

	// PathStyle addresses the bucket as endpoint/bucket instead of bucket.endpoint.
	PathStyle bool
}

// S3Service implements interfaces.RemoteService on Amazon S3 or compatible services.
// Objects are stored at prefix/<public_id>.<format> with a public-read ACL.
type S3Service struct {
	client      *s3.S3
	opts        S3Options
	log         *slog.Logger
	locationURI string
}

// NewS3Service creates a new S3 remote service.
// Without credentials the bucket is assumed to be public writable, which is rarely the case.
func NewS3Service(opts S3Options, log *slog.Logger) (*S3Service, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	opts.Prefix = strings.Trim(opts.Prefix, "/")

	// Format the URI for tracking
	uri := fmt.Sprintf("s3://%s/%s?region=%s", opts.Bucket, opts.Prefix, opts.Region)
	if opts.AccessKey != "" {
		uri = fmt.Sprintf("s3://%s:***@%s/%s?region=%s", opts.AccessKey, opts.Bucket, opts.Prefix, opts.Region)
	}
	if opts.Endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", opts.Endpoint)
	}

	cfg := aws.Config{
		Region:           aws.String(opts.Region),
		S3ForcePathStyle: aws.Bool(opts.PathStyle),
	}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, "")
	} else {
		log.Warn("No S3 credentials provided - write operations may fail unless bucket is public writable")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Service{
		client:      s3.New(sess),
		opts:        opts,
		log:         log,
		locationURI: uri,
	}, nil
}

// Explicit looks up the object stored for publicID, whatever its format.
func (b *S3Service) Explicit(ctx context.Context, publicID string) (interfaces.UploadResult, error) {
	start := time.Now()
	objects, err := b.findObjects(ctx, publicID)
	if err != nil {
		return interfaces.UploadResult{}, err
	}
	if len(objects) == 0 {
		b.log.Debug("Asset not found in S3",
			slog.String("bucket", b.opts.Bucket),
			slog.String("public_id", publicID),
			slog.Duration("duration", time.Since(start)))
		return interfaces.UploadResult{}, fmt.Errorf("%w: %s", interfaces.ErrNotFound, publicID)
	}

	obj := objects[0]
	return interfaces.UploadResult{
		PublicID: publicID,
		Format:   formatOf(aws.StringValue(obj.Key)),
		Bytes:    aws.Int64Value(obj.Size),
	}, nil
}

// Upload puts the file at localPath under the public_id carried by opts.
func (b *S3Service) Upload(ctx context.Context, localPath string, opts interfaces.UploadOptions) (interfaces.UploadResult, error) {
	start := time.Now()
	publicID := opts.PublicID()
	if publicID == "" {
		return interfaces.UploadResult{}, fmt.Errorf("public_id is required")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return interfaces.UploadResult{}, fmt.Errorf("failed to open upload source: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return interfaces.UploadResult{}, fmt.Errorf("failed to stat upload source: %w", err)
	}

	format, contentType, err := detectFormat(f, localPath, opts)
	if err != nil {
		return interfaces.UploadResult{}, err
	}

	key := b.objectKey(publicID, format)
	acl := "public-read"
	if v, ok := opts["acl"].(string); ok && v != "" {
		acl = v
	}

	_, err = b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.opts.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
		ACL:         aws.String(acl),
	})
	if err != nil {
		b.log.Error("Failed to upload object to S3",
			slog.String("bucket", b.opts.Bucket),
			slog.String("key", key),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return interfaces.UploadResult{}, fmt.Errorf("failed to upload object to S3: %w", err)
	}

	b.log.Debug("Stored asset in S3",
		slog.String("bucket", b.opts.Bucket),
		slog.String("key", key),
		slog.Int64("size", info.Size()),
		slog.Duration("duration", time.Since(start)))

	return interfaces.UploadResult{
		PublicID: publicID,
		Format:   format,
		Bytes:    info.Size(),
	}, nil
}

// Destroy deletes every object stored for publicID.
func (b *S3Service) Destroy(ctx context.Context, publicID string) error {
	objects, err := b.findObjects(ctx, publicID)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		return fmt.Errorf("%w: %s", interfaces.ErrNotFound, publicID)
	}

	for _, obj := range objects {
		_, err := b.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(b.opts.Bucket),
			Key:    obj.Key,
		})
		if err != nil {
			b.log.Error("Failed to delete object from S3",
				slog.String("bucket", b.opts.Bucket),
				slog.String("key", aws.StringValue(obj.Key)),
				"err", err)
			return fmt.Errorf("failed to delete object from S3: %w", err)
		}
	}

	b.log.Debug("Deleted asset from S3",
		slog.String("bucket", b.opts.Bucket),
		slog.String("public_id", publicID),
		slog.Int("objects", len(objects)))

	return nil
}

// URL builds the public URL of an uploaded asset. The secure option selects https,
// every other display option is appended as a sorted query parameter.
func (b *S3Service) URL(result interfaces.UploadResult, opts interfaces.DisplayOptions) string {
	u := b.publicBase(opts.Secure())
	u.Path = path.Join("/", u.Path, b.objectKey(result.PublicID, result.Format))

	query := url.Values{}
	for _, kv := range opts.QueryParams(interfaces.OptionSecure) {
		query.Add(kv[0], kv[1])
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// PublicBaseURL returns the URL every stored object is served below.
func (b *S3Service) PublicBaseURL() string {
	u := b.publicBase(false)
	u.Path = path.Join("/", u.Path, b.opts.Prefix)
	return u.String()
}

// publicBase returns scheme, host and base path of public object URLs.
func (b *S3Service) publicBase(secure bool) url.URL {
	scheme := "http"
	if secure {
		scheme = "https"
	}

	var host, basePath string
	switch {
	case b.opts.PublicURL != "":
		if u, err := url.Parse(b.opts.PublicURL); err == nil && u.Host != "" {
			host = u.Host
			basePath = u.Path
			if !secure && u.Scheme != "" {
				scheme = u.Scheme
			}
		} else {
			host = strings.TrimSuffix(b.opts.PublicURL, "/")
		}
	case b.opts.Endpoint != "":
		endpoint := b.opts.Endpoint
		if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
			endpoint = u.Host
		}
		if b.opts.PathStyle {
			host = endpoint
			basePath = "/" + b.opts.Bucket
		} else {
			host = b.opts.Bucket + "." + endpoint
		}
	default:
		host = fmt.Sprintf("%s.s3.%s.amazonaws.com", b.opts.Bucket, b.opts.Region)
	}

	return url.URL{Scheme: scheme, Host: host, Path: basePath}
}

// Available checks if the bucket is accessible.
func (b *S3Service) Available(ctx context.Context) bool {
	_, err := b.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.opts.Bucket),
	})
	if err != nil {
		b.log.Warn("S3 backend unavailable",
			slog.String("bucket", b.opts.Bucket),
			"err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *S3Service) Name() string {
	return fmt.Sprintf("s3-%s", b.opts.Bucket)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *S3Service) LocationURI() string {
	return b.locationURI
}

// objectKey returns the key of publicID stored in the given format.
func (b *S3Service) objectKey(publicID, format string) string {
	key := publicID
	if b.opts.Prefix != "" {
		key = path.Join(b.opts.Prefix, publicID)
	}
	if format == "" {
		return key
	}
	return key + "." + format
}

// findObjects lists the objects stored for publicID: the bare key, or the key
// followed by a single extension.
func (b *S3Service) findObjects(ctx context.Context, publicID string) ([]*s3.Object, error) {
	base := b.objectKey(publicID, "")
	out, err := b.client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.opts.Bucket),
		Prefix: aws.String(base),
	})
	if err != nil {
		b.log.Debug("Failed to list objects in S3",
			slog.String("bucket", b.opts.Bucket),
			slog.String("prefix", base),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	var matches []*s3.Object
	for _, obj := range out.Contents {
		key := aws.StringValue(obj.Key)
		if key == base {
			matches = append(matches, obj)
			continue
		}
		rest, ok := strings.CutPrefix(key, base+".")
		if ok && rest != "" && !strings.ContainsAny(rest, "./") {
			matches = append(matches, obj)
		}
	}
	return matches, nil
}

// detectFormat resolves the stored format and content type of an upload. The explicit
// format option wins, then the source extension, then the sniffed content.
func detectFormat(f io.ReadSeeker, localPath string, opts interfaces.UploadOptions) (string, string, error) {
	format := opts.Format()
	if format == "" {
		format = formatOf(localPath)
	}

	contentType := opts.ContentType()
	if contentType == "" && format != "" {
		contentType = mime.TypeByExtension("." + format)
	}
	if contentType != "" && format != "" {
		return format, contentType, nil
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", "", fmt.Errorf("failed to read upload source: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", "", fmt.Errorf("failed to rewind upload source: %w", err)
	}

	sniffed := http.DetectContentType(head[:n])
	if contentType == "" {
		contentType = sniffed
	}
	if format == "" {
		if exts, err := mime.ExtensionsByType(strings.Split(sniffed, ";")[0]); err == nil && len(exts) > 0 {
			format = strings.TrimPrefix(exts[0], ".")
		}
	}
	return format, contentType, nil
}

var (
	_ interfaces.RemoteService       = (*S3Service)(nil)
	_ interfaces.PublicBaser         = (*S3Service)(nil)
	_ interfaces.AvailabilityChecker = (*S3Service)(nil)
)
