package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/abacus/internal/config"
	"github.com/verte-zerg/abacus/internal/generator"
	"github.com/verte-zerg/abacus/internal/model"
	"github.com/verte-zerg/abacus/internal/preset"
)

func parsedRoot(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	root := newRootCmd()
	require.NoError(t, root.ParseFlags(args))
	return root
}

func tempPresets(t *testing.T) *preset.Manager {
	t.Helper()
	return preset.NewManager(preset.FileStorage{Path: filepath.Join(t.TempDir(), "presets.json")}, nil)
}

func TestResolvePracticeConfigDefaults(t *testing.T) {
	root := parsedRoot(t)
	cfg, err := resolvePracticeConfig(context.Background(), root, config.PracticeConfig{}, tempPresets(t))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultPracticeConfig(), cfg)
}

func TestResolvePracticeConfigPrecedence(t *testing.T) {
	ctx := context.Background()
	presets := tempPresets(t)
	saved := model.DefaultPracticeConfig()
	saved.Operation = model.OpMultiply
	saved.MultiplicandDigits = 3
	saved.TimeLimit = 5
	_, err := presets.Save(ctx, "Warmup", saved)
	require.NoError(t, err)

	rows := 12
	op := "divide"
	name := "warmup"
	file := config.PracticeConfig{Rows: &rows, Operation: &op, Preset: &name}

	root := parsedRoot(t, "--time", "3")
	cfg, err := resolvePracticeConfig(ctx, root, file, presets)
	require.NoError(t, err)
	assert.Equal(t, model.OpMultiply, cfg.Operation, "preset overrides the config file")
	assert.Equal(t, 3, cfg.MultiplicandDigits)
	assert.Equal(t, 3, cfg.TimeLimit, "flag overrides the preset")
	assert.Equal(t, saved.Rows, cfg.Rows)

	file.Preset = nil
	root = parsedRoot(t, "--mode", "oral", "--interval", "1.5")
	cfg, err = resolvePracticeConfig(ctx, root, file, presets)
	require.NoError(t, err)
	assert.Equal(t, model.OpDivide, cfg.Operation)
	assert.Equal(t, 12, cfg.Rows)
	assert.Equal(t, model.ModeOral, cfg.Mode)
	assert.InDelta(t, 1.5, cfg.Interval, 1e-9)
}

func TestResolvePracticeConfigUnknownPreset(t *testing.T) {
	root := parsedRoot(t, "--preset", "missing")
	_, err := resolvePracticeConfig(context.Background(), root, config.PracticeConfig{}, tempPresets(t))
	require.ErrorIs(t, err, preset.ErrNotFound)
}

func TestWriteWorksheet(t *testing.T) {
	cfg := model.DefaultPracticeConfig()
	cfg.Operation = model.OpMultiply
	problems := generator.NewWithSeed(3).GenerateSet(cfg, 3)

	var buf bytes.Buffer
	require.NoError(t, writeWorksheet(&buf, problems, true))
	out := buf.String()
	assert.Contains(t, out, "1. "+problems[0].Display+" =")
	assert.Contains(t, out, "3. "+problems[2].Display+" =")
	assert.Contains(t, out, "Answers:")

	buf.Reset()
	require.NoError(t, writeWorksheet(&buf, problems, false))
	assert.NotContains(t, buf.String(), "Answers:")
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 3)
}

func TestPresetSettings(t *testing.T) {
	cfg := model.DefaultPracticeConfig()
	assert.Equal(t, "1 digits, 3 rows, addition, 1 min", presetSettings(cfg))

	cfg.Operation = model.OpDivide
	cfg.Mode = model.ModeOral
	cfg.Interval = 2.5
	assert.Equal(t, "3/1 digits, 5 sums every 2.5s", presetSettings(cfg))
}

func TestStatsConfigFilters(t *testing.T) {
	root := newRootCmd()
	statsCmd, _, err := root.Find([]string{"stats"})
	require.NoError(t, err)
	require.NoError(t, statsCmd.ParseFlags([]string{"--op", "multiply", "--since", "2024-03-01", "--last", "5"}))

	cfg, err := statsConfig(statsCmd)
	require.NoError(t, err)
	assert.Equal(t, model.OpMultiply, cfg.Operation)
	assert.Equal(t, model.Mode(""), cfg.Mode)
	assert.Equal(t, 5, cfg.Last)
	require.NotNil(t, cfg.Since)
	assert.Equal(t, 3, int(cfg.Since.Month()))

	statsSince = "yesterday"
	_, err = statsConfig(statsCmd)
	assert.Error(t, err)
}

var templateKey = regexp.MustCompile(`^# ([a-z-]+ = .*)$`)

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	lines := strings.Split(defaultConfigTemplate(), "\n")
	for i, line := range lines {
		if m := templateKey.FindStringSubmatch(line); m != nil {
			lines[i] = m[1]
		}
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Practice.Operation)
	assert.Equal(t, string(model.OpAddLess), *cfg.Practice.Operation)
	require.NotNil(t, cfg.Coach.Provider)
	assert.Equal(t, config.ProviderAuto, *cfg.Coach.Provider)
	require.NotNil(t, cfg.Narration.Player)

	practice := model.DefaultPracticeConfig()
	applyFileConfig(&practice, cfg.Practice)
	assert.Equal(t, model.DefaultPracticeConfig(), practice)
}
