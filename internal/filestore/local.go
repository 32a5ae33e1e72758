package filestore

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const UploadURLPrefix = "/uploads/"

// LocalStore serves files from BaseDir under the /uploads/ URL prefix.
type LocalStore struct {
	BaseDir string
}

func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{BaseDir: baseDir}
}

func (s *LocalStore) Init() error {
	if err := os.MkdirAll(s.BaseDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", s.BaseDir, err)
	}
	return nil
}

func (s *LocalStore) Mode() string { return "local" }

// Path resolves uri to a file inside BaseDir.
func (s *LocalStore) Path(uri string) (string, error) {
	p := uri
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		u, err := url.Parse(uri)
		if err != nil {
			return "", fmt.Errorf("invalid file url: %w", err)
		}
		p = u.Path
	}
	if !strings.HasPrefix(p, UploadURLPrefix) {
		return "", ErrNotManaged
	}

	baseAbs, err := filepath.Abs(s.BaseDir)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(baseAbs, filepath.FromSlash(strings.TrimPrefix(p, UploadURLPrefix))))
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}
	if realPath, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = realPath
	}
	if realBase, err := filepath.EvalSymlinks(baseAbs); err == nil {
		baseAbs = realBase
	}
	if !strings.HasPrefix(absPath, baseAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("file path outside uploads directory")
	}
	return absPath, nil
}

func (s *LocalStore) Delete(_ context.Context, uri string) error {
	path, err := s.Path(uri)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", uri)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
