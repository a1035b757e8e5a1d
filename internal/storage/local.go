// Package storage keeps uploaded profile documents on local disk.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrRejectedFile marks uploads refused for size or content type.
var ErrRejectedFile = errors.New("file rejected")

// DocumentTypes are the content types accepted for identity documents.
var DocumentTypes = []string{"image/jpeg", "image/png", "application/pdf"}

// FileStore saves uploads and returns a path relative to its root.
type FileStore interface {
	Save(file io.Reader, originalName, prefix string) (string, error)
	Delete(relativePath string) error
}

// LocalFileStore writes under basePath/prefix/YYYY/MM/DD with uuid names.
type LocalFileStore struct {
	basePath string
	maxBytes int64
	now      func() time.Time
}

// NewLocalFileStore creates basePath when missing.
func NewLocalFileStore(basePath string, maxBytes int64) (*LocalFileStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalFileStore{basePath: basePath, maxBytes: maxBytes, now: time.Now}, nil
}

func (s *LocalFileStore) Save(file io.Reader, originalName, prefix string) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	head = head[:n]

	if mimeType := http.DetectContentType(head); !slices.Contains(DocumentTypes, mimeType) {
		return "", fmt.Errorf("%w: content type %s", ErrRejectedFile, mimeType)
	}

	now := s.now()
	datePath := now.Format("2006/01/02")
	dir := filepath.Join(s.basePath, prefix, datePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%s%s", now.Format("2006-01-02"), uuid.NewString(), strings.ToLower(filepath.Ext(originalName)))
	fullPath := filepath.Join(dir, name)
	dst, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}

	src := io.MultiReader(bytes.NewReader(head), file)
	if s.maxBytes > 0 {
		src = io.LimitReader(src, s.maxBytes+1)
	}
	written, err := io.Copy(dst, src)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && s.maxBytes > 0 && written > s.maxBytes {
		err = fmt.Errorf("%w: larger than %d bytes", ErrRejectedFile, s.maxBytes)
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return "", err
	}

	return filepath.ToSlash(filepath.Join(prefix, datePath, name)), nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *LocalFileStore) Delete(relativePath string) error {
	if relativePath == "" {
		return nil
	}
	clean := filepath.Clean("/" + relativePath)
	fullPath := filepath.Join(s.basePath, clean)
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
