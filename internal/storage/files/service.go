// Package files implements the document blob store on the local
// filesystem, confined to a configured storage root.
package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
)

// Service implements the FileStorage interface on a local directory
type Service struct {
	root   string
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.FileStorage = (*Service)(nil)

// NewService creates a file storage service rooted at config.Root
func NewService(config *common.FilesConfig, logger arbor.ILogger) (*Service, error) {
	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	logger.Debug().Str("root", root).Msg("File storage initialized")

	return &Service{
		root:   root,
		logger: logger,
	}, nil
}

// resolve joins a relative stored path onto the root and rejects any path
// that would escape it.
func (s *Service) resolve(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("path is required")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("absolute paths are not allowed: %s", rel)
	}

	full := filepath.Join(s.root, filepath.Clean(rel))
	if full != s.root && !strings.HasPrefix(full, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes storage root: %s", rel)
	}
	return full, nil
}

func (s *Service) Save(r io.Reader, fileName, subfolder string) (string, int64, error) {
	rel := fileName
	if subfolder != "" {
		rel = filepath.Join(subfolder, fileName)
	}

	full, err := s.resolve(rel)
	if err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create storage subfolder: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(full)
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug().Str("path", rel).Int64("size", size).Msg("File stored")

	return rel, size, nil
}

func (s *Service) Exists(path string) bool {
	full, err := s.resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

func (s *Service) Get(path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (s *Service) Delete(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
