package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// Uploader stores an uploaded file somewhere public and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, folder, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, publicID string) error
}

// CloudinaryUploader implements Uploader on a Cloudinary account.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger *zap.Logger
}

// NewCloudinaryUploader builds an uploader from account credentials.
func NewCloudinaryUploader(cloudName, apiKey, apiSecret, folder string, logger *zap.Logger) (*CloudinaryUploader, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("storage: cloudinary credentials not set in configuration")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to initialize cloudinary: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CloudinaryUploader{cld: cld, folder: folder, logger: logger}, nil
}

// Upload pushes r into "<root folder>/<folder>" and returns the secure URL.
func (s *CloudinaryUploader) Upload(ctx context.Context, folder, filename string, r io.Reader) (string, error) {
	params := uploader.UploadParams{
		Folder:   path.Join(s.folder, folder),
		PublicID: strings.TrimSuffix(path.Base(filename), path.Ext(filename)),
	}
	result, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return "", fmt.Errorf("storage: failed to upload file: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("storage: upload rejected: %s", result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("storage: no URL returned for %s", filename)
	}
	s.logger.Info("media uploaded", zap.String("public_id", result.PublicID), zap.String("folder", params.Folder))
	return result.SecureURL, nil
}

// Delete removes a file given its public ID.
func (s *CloudinaryUploader) Delete(ctx context.Context, publicID string) error {
	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("storage: failed to delete file: %w", err)
	}
	return nil
}

// ResolveMedia turns an API media path into an absolute URL against base.
// Absolute URLs pass through untouched.
func ResolveMedia(base, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "//") {
		return ref
	}
	base = strings.TrimRight(base, "/")
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return base + ref
}
