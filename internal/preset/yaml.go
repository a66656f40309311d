package preset

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/abacus/internal/model"
)

type exportFile struct {
	Presets []model.SavedPreset `yaml:"presets"`
}

// Export writes presets as YAML.
func Export(w io.Writer, presets []model.SavedPreset) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(exportFile{Presets: presets}); err != nil {
		return fmt.Errorf("failed to encode presets: %w", err)
	}
	return enc.Close()
}

// Import reads presets written by Export. Missing ids are assigned and
// unnamed entries are rejected.
func Import(r io.Reader) ([]model.SavedPreset, error) {
	var file exportFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode presets: %w", err)
	}
	for i := range file.Presets {
		p := &file.Presets[i]
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("preset %d: %w", i+1, ErrEmptyName)
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
	}
	return file.Presets, nil
}

// Merge appends imported presets to existing ones, replacing entries with the same id.
func Merge(existing, imported []model.SavedPreset) []model.SavedPreset {
	index := make(map[string]int, len(existing))
	out := append([]model.SavedPreset(nil), existing...)
	for i, p := range out {
		index[p.ID] = i
	}
	for _, p := range imported {
		if i, ok := index[p.ID]; ok {
			out[i] = p
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}
