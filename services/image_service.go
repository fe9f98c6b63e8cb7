package services

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"marketplace-service/apperrors"
	aws_pkg "marketplace-service/pkg/aws"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// allowedImageTypes maps each accepted content type to the extensions a
// filename may carry for it. The first one is used for the object key.
var allowedImageTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/webp": {".webp"},
	"image/gif":  {".gif"},
}

// ImageUpload is returned to the seller's browser for a direct S3 PUT.
type ImageUpload struct {
	UploadURL string `json:"uploadUrl"`
	Method    string `json:"method"`
	Key       string `json:"key"`
	PublicURL string `json:"publicUrl"`
	ExpiresIn int64  `json:"expiresIn"`
}

type ImageService struct {
	presigner  aws_pkg.PutPresigner
	sellers    SellerGate
	bucket     string
	prefix     string
	publicBase string
	expires    time.Duration
	logger     *zap.Logger
}

func NewImageService(presigner aws_pkg.PutPresigner, sellers SellerGate, bucket, prefix, publicBase string, expires time.Duration, logger *zap.Logger) *ImageService {
	if expires <= 0 {
		expires = 15 * time.Minute
	}
	return &ImageService{
		presigner:  presigner,
		sellers:    sellers,
		bucket:     bucket,
		prefix:     prefix,
		publicBase: publicBase,
		expires:    expires,
		logger:     logger,
	}
}

// PresignListingImage issues an upload URL scoped under the seller's prefix.
// Only approved sellers may upload.
func (s *ImageService) PresignListingImage(ctx context.Context, sellerID, filename, contentType string) (*ImageUpload, error) {
	if _, err := s.sellers.RequireApproved(ctx, sellerID); err != nil {
		return nil, err
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	exts, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, apperrors.Validation("Unsupported image content type", "contentType")
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && !slices.Contains(exts, ext) {
		return nil, apperrors.Validation("File extension does not match content type", "filename")
	}

	// the key never takes its extension from the client
	key := fmt.Sprintf("%s%s/%s%s", s.prefix, sellerID, uuid.NewString(), exts[0])
	url, err := s.presigner.PresignPut(ctx, s.bucket, key, contentType, s.expires)
	if err != nil {
		s.logger.Error("Failed to presign listing image", zap.String("seller_id", sellerID), zap.Error(err))
		return nil, apperrors.Internal("Failed to generate upload URL", err)
	}

	return &ImageUpload{
		UploadURL: url,
		Method:    "PUT",
		Key:       key,
		PublicURL: s.publicURL(key),
		ExpiresIn: int64(s.expires.Seconds()),
	}, nil
}

func (s *ImageService) publicURL(key string) string {
	if s.publicBase != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.publicBase, "/"), key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}
