package testutil

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

// PNGBytes is a minimal PNG signature used as fake image content
var PNGBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}

// MultipartImageBody builds a multipart form with one file in field
func MultipartImageBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

// ImageFileHeader returns the parsed header of an uploaded file
func ImageFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body, contentType := MultipartImageBody(t, "image", filename, content)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("Failed to parse multipart form: %v", err)
	}
	return req.MultipartForm.File["image"][0]
}
