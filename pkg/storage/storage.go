package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a key does not exist
var ErrNotFound = errors.New("object not found")

// UploadResult contains the result of an upload operation
type UploadResult struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// PresignedURLResult contains a presigned URL for direct download
type PresignedURLResult struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Storage archives imported workbooks
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*UploadResult, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	GetPresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (*PresignedURLResult, error)
}

// GenerateImportKey builds a unique key for an uploaded workbook.
// Format: {prefix}/{kind}/{yyyy}/{mm}/{yyyymmdd-hhmmss}_{id}{ext}
func GenerateImportKey(prefix, kind, filename string, at time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".xlsx"
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "imports"
	}
	return fmt.Sprintf("%s/%s/%s/%s_%s%s",
		prefix,
		strings.ToLower(kind),
		at.UTC().Format("2006/01"),
		at.UTC().Format("20060102-150405"),
		uuid.New().String()[:8],
		ext,
	)
}

// GetMimeTypeFromExtension returns the MIME type for spreadsheet extensions
func GetMimeTypeFromExtension(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xlsm":
		return "application/vnd.ms-excel.sheet.macroEnabled.12"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// IsSpreadsheet reports whether the filename looks like a workbook we can parse
func IsSpreadsheet(filename string) bool {
	switch strings.ToLower(path.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// MemoryStorage keeps objects in process. Used when no bucket is configured
// and in tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
	types   map[string]string
}

// NewMemoryStorage creates an empty in-memory store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

// Upload stores the reader's content under key
func (m *MemoryStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	m.mu.Lock()
	m.objects[key] = data
	m.types[key] = contentType
	m.mu.Unlock()

	return &UploadResult{
		Key:        key,
		URL:        "memory://" + key,
		Size:       int64(len(data)),
		MimeType:   contentType,
		UploadedAt: time.Now(),
	}, nil
}

// Download returns the stored object
func (m *MemoryStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	data, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes key
func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	delete(m.types, key)
	m.mu.Unlock()
	return nil
}

// Exists reports whether key is stored
func (m *MemoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	return ok, nil
}

// GetPresignedDownloadURL returns a pseudo URL for key
func (m *MemoryStorage) GetPresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (*PresignedURLResult, error) {
	if ok, _ := m.Exists(ctx, key); !ok {
		return nil, ErrNotFound
	}
	return &PresignedURLResult{
		URL:       "memory://" + key,
		Method:    "GET",
		ExpiresAt: time.Now().Add(expiresIn),
	}, nil
}
