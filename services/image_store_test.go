package services_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/lumme/lumme-api/config"
	"github.com/lumme/lumme-api/services"
	"github.com/lumme/lumme-api/tests/testutil"
	"github.com/lumme/lumme-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductImageStore(t *testing.T) {
	ctx := context.Background()
	objects := services.NewMemoryStore()
	images := services.NewProductImageStore(objects)

	tests := []struct {
		name     string
		filename string
		content  []byte
		wantCode string
	}{
		{"png accepted", "roses.png", testutil.PNGBytes, ""},
		{"uppercase extension", "TULIPS.JPG", testutil.PNGBytes, ""},
		{"unsupported format", "roses.bmp", testutil.PNGBytes, "INVALID_FILE_FORMAT"},
		{"empty upload", "roses.png", []byte{}, "EMPTY_FILE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := images.Save(ctx, 7, testutil.ImageFileHeader(t, tt.filename, tt.content))
			if tt.wantCode != "" {
				var uploadErr *utils.FileUploadError
				require.ErrorAs(t, err, &uploadErr)
				assert.Equal(t, tt.wantCode, uploadErr.Code)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(key, "products/7/"))
			assert.True(t, strings.HasSuffix(key, strings.ToLower(tt.filename[strings.LastIndex(tt.filename, "."):])))
			assert.True(t, objects.Has(key))

			url, err := images.URL(ctx, key)
			require.NoError(t, err)
			assert.Contains(t, url, key)

			require.NoError(t, images.Delete(ctx, key))
			assert.False(t, objects.Has(key))
		})
	}

	assert.Empty(t, objects.Keys())
	require.NoError(t, images.Delete(ctx, ""))

	_, err := images.URL(ctx, "products/7/missing.png")
	assert.Error(t, err)
}

func TestProductImageKeysAreUnique(t *testing.T) {
	ctx := context.Background()
	objects := services.NewMemoryStore()
	images := services.NewProductImageStore(objects)

	first, err := images.Save(ctx, 3, testutil.ImageFileHeader(t, "roses.png", testutil.PNGBytes))
	require.NoError(t, err)
	second, err := images.Save(ctx, 3, testutil.ImageFileHeader(t, "roses.png", testutil.PNGBytes))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, objects.Keys(), 2)
}

func TestS3StorePresignsWithoutNetwork(t *testing.T) {
	cfg := &config.Config{
		AWSRegion:          "eu-north-1",
		AWSS3Bucket:        "lumme-images",
		AWSAccessKeyID:     "AKIATEST",
		AWSSecretAccessKey: "secret",
	}

	store, err := services.NewS3Store(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "lumme-images", store.Bucket())

	key := fmt.Sprintf("products/%d/photo.png", 12)
	url, err := store.PresignGet(context.Background(), key)
	require.NoError(t, err)
	assert.Contains(t, url, "lumme-images")
	assert.Contains(t, url, key)
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=3600")
}
