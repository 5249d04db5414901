package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lumme/lumme-api/utils"
)

// productImagePrefix is the bucket folder holding product images
const productImagePrefix = "products"

// ImageStore keeps product photos
type ImageStore interface {
	// Save validates and stores an upload for a product, returning its key
	Save(ctx context.Context, productID uint, fileHeader *multipart.FileHeader) (string, error)
	// URL returns a short-lived URL for reading the image at key
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ProductImageStore writes product photos to an ObjectStore under products/<id>/
type ProductImageStore struct {
	objects ObjectStore
}

// NewProductImageStore creates an image store on top of objects
func NewProductImageStore(objects ObjectStore) *ProductImageStore {
	return &ProductImageStore{objects: objects}
}

var imageStore ImageStore

// GetImageStore returns the process-wide image store, nil when image
// storage is not configured
func GetImageStore() ImageStore {
	return imageStore
}

// SetImageStore installs the process-wide image store
func SetImageStore(store ImageStore) {
	imageStore = store
}

func (s *ProductImageStore) Save(ctx context.Context, productID uint, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}
	contentType, _ := utils.ImageContentType(fileHeader.Filename)

	body, err := readUpload(fileHeader)
	if err != nil {
		return "", err
	}

	key := productImageKey(productID, fileHeader.Filename)
	if err := s.objects.PutObject(ctx, key, contentType, body); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return key, nil
}

func (s *ProductImageStore) URL(ctx context.Context, key string) (string, error) {
	url, err := s.objects.PresignGet(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to sign image URL: %w", err)
	}
	return url, nil
}

func (s *ProductImageStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.objects.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// productImageKey is unique per upload so a replaced image never shadows the new one
func productImageKey(productID uint, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%d/%s%s", productImagePrefix, productID, uuid.NewString(), ext)
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return body, nil
}
