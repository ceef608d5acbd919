// Package upload pushes profile and project images to object storage and
// hands back the public URL stored verbatim on the owning record.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// MaxImageBytes is the client-side ceiling; anything larger is rejected
// before a single byte goes to the storage API.
const MaxImageBytes = 5 << 20

var (
	avatarBucket    = os.Getenv("AVATAR_BUCKET")
	avatarCDNDomain = os.Getenv("AVATAR_CDN_DOMAIN")
)

var (
	ErrTooLarge   = errors.New("image exceeds the 5MB limit")
	ErrNotAnImage = errors.New("file is not a supported image type")
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ValidateImage applies the client-side checks. It is called before the
// storage client is touched, so an oversized or non-image file never
// causes a remote call.
func ValidateImage(contentType string, size int64) error {
	if _, ok := imageExtensions[contentType]; !ok {
		return ErrNotAnImage
	}
	if size > MaxImageBytes {
		return ErrTooLarge
	}
	return nil
}

type Uploader struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

func NewUploader(ctx context.Context) (*Uploader, error) {
	if avatarBucket == "" {
		return nil, errors.New("missing env var AVATAR_BUCKET")
	}
	client, err := storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Uploader{
		client:    client,
		bucket:    avatarBucket,
		cdnDomain: avatarCDNDomain,
	}, nil
}

// Upload writes the image under images/{uid}/ with a fresh object name and
// returns its public URL.
func (u *Uploader) Upload(ctx context.Context, uid, contentType string, size int64, r io.Reader) (string, error) {
	if err := ValidateImage(contentType, size); err != nil {
		return "", err
	}

	key := fmt.Sprintf("images/%s/%s.%s", uid, uuid.NewString(), imageExtensions[contentType])
	w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, io.LimitReader(r, MaxImageBytes)); err != nil {
		w.Close()
		return "", fmt.Errorf("writing object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing object %s: %w", key, err)
	}

	return u.publicURL(key), nil
}

func (u *Uploader) publicURL(key string) string {
	if u.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", u.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, key)
}
