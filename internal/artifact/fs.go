package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSConfig captures the parameters for the filesystem store.
type FSConfig struct {
	// BaseDir is the root directory where artifacts are written.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// FSStore writes artifacts to the local filesystem.
type FSStore struct {
	baseDir string
}

// NewFSStore creates a filesystem-backed artifact store, creating the base
// directory if needed.
func NewFSStore(cfg FSConfig) (*FSStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat base directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	return &FSStore{baseDir: cfg.BaseDir}, nil
}

// Save writes the artifact under the base directory and returns a file:// URI.
func (s *FSStore) Save(_ context.Context, name string, _ string, data []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("artifact name is required")
	}

	fullPath := filepath.Join(s.baseDir, name)

	// Reject names that climb out of the base directory.
	cleanBase := filepath.Clean(s.baseDir)
	cleanFull := filepath.Clean(fullPath)
	if !strings.HasPrefix(cleanFull, cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o600); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	return fmt.Sprintf("file://%s", fullPath), nil
}
