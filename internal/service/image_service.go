package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"forum/internal/config"
	"forum/internal/models"
	"forum/internal/observability"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadDir        = "./uploads"
	UploadURLPrefix         = "/uploads/"
	ProfilePictureMaxBytes  = 1 << 20
	CategoryPictureMaxBytes = 8 << 20
	ProfilePictureMaxSize   = 512
	CategoryPictureMaxSize  = 1440
	WebPQuality             = 80
)

// ImageService validates uploaded images and re-encodes them as WebP.
// Category pictures are written under the upload directory with a uuid file
// name; profile pictures are returned as bytes for the user row.
type ImageService struct {
	uploadDir string
}

func NewImageService(cfg *config.Config) *ImageService {
	uploadDir := DefaultUploadDir
	if cfg != nil && cfg.UploadDir != "" {
		uploadDir = cfg.UploadDir
	}
	return &ImageService{uploadDir: uploadDir}
}

// UploadDir is the directory served at UploadURLPrefix.
func (s *ImageService) UploadDir() string {
	return s.uploadDir
}

// EncodeProfilePicture turns an upload of at most 1 MB into a WebP image.
func (s *ImageService) EncodeProfilePicture(content []byte) ([]byte, error) {
	return encodeUpload(content, ProfilePictureMaxBytes, ProfilePictureMaxSize)
}

// SaveCategoryPicture stores an upload of at most 8 MB and returns its public
// path.
func (s *ImageService) SaveCategoryPicture(content []byte) (string, error) {
	encoded, err := encodeUpload(content, CategoryPictureMaxBytes, CategoryPictureMaxSize)
	if err != nil {
		return "", err
	}

	rel := path.Join("categories", uuid.NewString()+".webp")
	if err := writeBytesToFile(filepath.Join(s.uploadDir, filepath.FromSlash(rel)), encoded); err != nil {
		return "", models.NewInternalError(err)
	}
	return UploadURLPrefix + rel, nil
}

// RemoveLocal deletes the file behind a public upload path. External URLs
// and unknown paths are ignored; failures are only logged.
func (s *ImageService) RemoveLocal(ctx context.Context, publicPath string) {
	abs, ok := s.localPath(publicPath)
	if !ok {
		return
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		observability.GlobalLogger.WarnContext(ctx, "failed to remove stale upload",
			slog.String("path", publicPath),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ImageService) localPath(publicPath string) (string, bool) {
	if !strings.HasPrefix(publicPath, UploadURLPrefix) {
		return "", false
	}
	rel := path.Clean(strings.TrimPrefix(publicPath, UploadURLPrefix))
	if rel == "." || strings.HasPrefix(rel, "..") || path.IsAbs(rel) {
		return "", false
	}
	return filepath.Join(s.uploadDir, filepath.FromSlash(rel)), true
}

func encodeUpload(content []byte, maxBytes int64, maxSize int) ([]byte, error) {
	if len(content) == 0 {
		return nil, models.NewUploadRejectedError("No file uploaded")
	}
	if int64(len(content)) > maxBytes {
		return nil, models.NewUploadRejectedError(fmt.Sprintf("File too large (max %s)", humanSize(maxBytes)))
	}
	if !isAllowedImageMIME(http.DetectContentType(content)) {
		return nil, models.NewUploadRejectedError("Invalid image type")
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewUploadRejectedError("Invalid image file")
	}

	encoded, err := encodeWebP(resizeToFit(decoded, maxSize, maxSize), WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return encoded, nil
}

func humanSize(n int64) string {
	return fmt.Sprintf("%dMB", n/(1<<20))
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if scaleH := float64(maxHeight) / float64(h); scaleH < scale {
		scale = scaleH
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func writeBytesToFile(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o600)
}
