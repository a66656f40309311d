// Package preset manages named practice configurations.
package preset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/abacus/internal/model"
)

var (
	// ErrEmptyName is returned when saving a preset without a name.
	ErrEmptyName = errors.New("preset name is empty")
	// ErrNotFound is returned when no preset matches.
	ErrNotFound = errors.New("preset not found")
)

// Storage persists the serialized preset list.
type Storage interface {
	LoadPresets(ctx context.Context) ([]byte, error)
	SavePresets(ctx context.Context, data []byte) error
}

// Manager keeps the preset list in insertion order.
type Manager struct {
	storage Storage
	logger  *zap.Logger
}

// NewManager wraps storage. A nil logger discards warnings.
func NewManager(storage Storage, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{storage: storage, logger: logger}
}

// List returns all presets. Malformed stored data yields an empty list.
func (m *Manager) List(ctx context.Context) ([]model.SavedPreset, error) {
	data, err := m.storage.LoadPresets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load presets: %w", err)
	}
	return m.decode(data), nil
}

// Save appends a new preset and returns it.
func (m *Manager) Save(ctx context.Context, name string, cfg model.PracticeConfig) (model.SavedPreset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.SavedPreset{}, ErrEmptyName
	}
	presets, err := m.List(ctx)
	if err != nil {
		return model.SavedPreset{}, err
	}
	p := model.SavedPreset{ID: uuid.NewString(), Name: name, Config: cfg}
	presets = append(presets, p)
	if err := m.write(ctx, presets); err != nil {
		return model.SavedPreset{}, err
	}
	return p, nil
}

// Delete removes the preset with id. Unknown ids return ErrNotFound.
func (m *Manager) Delete(ctx context.Context, id string) error {
	presets, err := m.List(ctx)
	if err != nil {
		return err
	}
	kept := presets[:0]
	found := false
	for _, p := range presets {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return ErrNotFound
	}
	return m.write(ctx, kept)
}

// Find looks a preset up by id, then by case-insensitive name.
func (m *Manager) Find(ctx context.Context, key string) (model.SavedPreset, error) {
	presets, err := m.List(ctx)
	if err != nil {
		return model.SavedPreset{}, err
	}
	key = strings.TrimSpace(key)
	for _, p := range presets {
		if p.ID == key {
			return p, nil
		}
	}
	for _, p := range presets {
		if strings.EqualFold(p.Name, key) {
			return p, nil
		}
	}
	return model.SavedPreset{}, ErrNotFound
}

// Replace overwrites the whole list, used by import.
func (m *Manager) Replace(ctx context.Context, presets []model.SavedPreset) error {
	return m.write(ctx, presets)
}

func (m *Manager) decode(data []byte) []model.SavedPreset {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	var presets []model.SavedPreset
	if err := json.Unmarshal(data, &presets); err != nil {
		m.logger.Warn("ignoring malformed presets", zap.Error(err))
		return nil
	}
	return presets
}

func (m *Manager) write(ctx context.Context, presets []model.SavedPreset) error {
	if presets == nil {
		presets = []model.SavedPreset{}
	}
	data, err := json.Marshal(presets)
	if err != nil {
		return fmt.Errorf("failed to encode presets: %w", err)
	}
	if err := m.storage.SavePresets(ctx, data); err != nil {
		return fmt.Errorf("failed to save presets: %w", err)
	}
	return nil
}
