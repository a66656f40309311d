package preset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStorage keeps presets in a single JSON file.
type FileStorage struct {
	Path string
}

// LoadPresets returns the file contents, or nil when the file does not exist yet.
func (f FileStorage) LoadPresets(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}
	return data, nil
}

// SavePresets replaces the file atomically.
func (f FileStorage) SavePresets(_ context.Context, data []byte) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create presets dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".presets-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		if rerr := os.Remove(tmpPath); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			// Best-effort temp cleanup.
			_ = rerr
		}
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write presets: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close presets file: %w", err)
	}
	if err := os.Rename(tmpPath, f.Path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace presets file: %w", err)
	}
	return nil
}
