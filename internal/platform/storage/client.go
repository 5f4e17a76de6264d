package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const defaultUploadTimeout = 30 * time.Second

var (
	errBucketRequired = errors.New("storage: bucket name is required")
	errObjectRequired = errors.New("storage: object name is required")
	errReaderRequired = errors.New("storage: content reader is required")
)

// Client uploads product images to the configured bucket and builds the
// public URLs the catalog stores.
type Client struct {
	bucket        string
	publicBaseURL string
	uploadTimeout time.Duration
	gcs           *gcs.Client
	now           func() time.Time
}

// ClientOption customises client behaviour.
type ClientOption func(*Client)

// WithPublicBaseURL overrides the default storage.googleapis.com URL prefix,
// e.g. for a CDN fronting the bucket.
func WithPublicBaseURL(base string) ClientOption {
	return func(c *Client) {
		trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
		if trimmed != "" {
			c.publicBaseURL = trimmed
		}
	}
}

// WithUploadTimeout bounds each upload call.
func WithUploadTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.uploadTimeout = d
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) ClientOption {
	return func(c *Client) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewClient constructs a storage client bound to the given bucket.
func NewClient(ctx context.Context, bucket string, opts []option.ClientOption, clientOpts ...ClientOption) (*Client, error) {
	trimmed := strings.TrimSpace(bucket)
	if trimmed == "" {
		return nil, errBucketRequired
	}

	underlying, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: create client: %w", err)
	}

	client := &Client{
		bucket:        trimmed,
		uploadTimeout: defaultUploadTimeout,
		gcs:           underlying,
		now:           time.Now,
	}
	for _, opt := range clientOpts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Upload writes the object and returns its public URL. Objects are named by
// the caller; see ObjectName for the convention used for product images.
func (c *Client) Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error) {
	if c == nil || c.gcs == nil {
		return "", errors.New("storage: client not initialised")
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return "", errObjectRequired
	}
	if body == nil {
		return "", errReaderRequired
	}

	if c.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.uploadTimeout)
		defer cancel()
	}

	w := c.gcs.Bucket(c.bucket).Object(object).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage: upload %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", object, err)
	}
	return c.PublicURL(object), nil
}

// ObjectName builds the conventional product image object name:
// a millisecond timestamp plus the original file extension.
func (c *Client) ObjectName(originalFilename string) string {
	ext := ""
	if idx := strings.LastIndex(originalFilename, "."); idx >= 0 {
		ext = strings.ToLower(originalFilename[idx:])
	}
	return fmt.Sprintf("%d%s", c.now().UnixMilli(), ext)
}

// PublicURL returns the publicly served URL for an object in the bucket.
func (c *Client) PublicURL(object string) string {
	escaped := url.PathEscape(object)
	if c.publicBaseURL != "" {
		return c.publicBaseURL + "/" + escaped
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucket, escaped)
}

// Close releases the underlying client.
func (c *Client) Close() error {
	if c == nil || c.gcs == nil {
		return nil
	}
	return c.gcs.Close()
}
