package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/abacus/internal/config"
	"github.com/verte-zerg/abacus/internal/generator"
	"github.com/verte-zerg/abacus/internal/model"
	"github.com/verte-zerg/abacus/internal/preset"
	"github.com/verte-zerg/abacus/internal/stats"
)

func newPresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage saved presets",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		Args:  cobra.NoArgs,
		RunE:  withPresets(runPresetsList),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "save NAME",
		Short: "Save the configuration given by flags as a preset",
		Args:  cobra.ExactArgs(1),
		RunE:  withPresets(runPresetsSave),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete ID|NAME",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE:  withPresets(runPresetsDelete),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "export FILE",
		Short: `Write presets as YAML ("-" for stdout)`,
		Args:  cobra.ExactArgs(1),
		RunE:  withPresets(runPresetsExport),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import FILE",
		Short: `Merge presets from YAML ("-" for stdin)`,
		Args:  cobra.ExactArgs(1),
		RunE:  withPresets(runPresetsImport),
	})
	return cmd
}

type presetsRunner func(ctx context.Context, cmd *cobra.Command, fileCfg config.FileConfig, presets *preset.Manager, args []string) error

func withPresets(run presetsRunner) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		env, err := openEnv(fileCfg)
		if err != nil {
			return err
		}
		defer env.Close()
		return run(ctx, cmd, fileCfg, env.presets, args)
	}
}

func runPresetsList(ctx context.Context, cmd *cobra.Command, _ config.FileConfig, presets *preset.Manager, _ []string) error {
	list, err := presets.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		logErrln("No presets saved. Create one with: abacus presets save NAME [flags]")
		return nil
	}
	return writePresetTable(cmd.OutOrStdout(), list)
}

func writePresetTable(w io.Writer, list []model.SavedPreset) error {
	headers := []string{"ID", "Name", "Mode", "Operation", "Settings"}
	rows := make([][]string, 0, len(list))
	for _, p := range list {
		rows = append(rows, []string{p.ID, p.Name, string(p.Config.Mode), stats.OperationLabel(p.Config.Operation), presetSettings(p.Config)})
	}
	for _, line := range stats.FormatTable(headers, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func presetSettings(cfg model.PracticeConfig) string {
	var s string
	switch cfg.Operation {
	case model.OpMultiply:
		s = fmt.Sprintf("%dx%d digits", cfg.MultiplicandDigits, cfg.MultiplicatorDigits)
	case model.OpDivide:
		s = fmt.Sprintf("%d/%d digits", cfg.DividendDigits, cfg.DivisorDigits)
	default:
		s = fmt.Sprintf("%s digits, %d rows, %s", cfg.Digits, cfg.Rows, cfg.SumsType)
	}
	if cfg.Mode == model.ModeOral {
		return s + ", " + strconv.Itoa(cfg.NumberOfSums) + " sums every " + strconv.FormatFloat(cfg.Interval, 'f', -1, 64) + "s"
	}
	return s + ", " + strconv.Itoa(cfg.TimeLimit) + " min"
}

func runPresetsSave(ctx context.Context, cmd *cobra.Command, fileCfg config.FileConfig, presets *preset.Manager, args []string) error {
	practice := fileCfg.Practice
	practice.Preset = nil
	cfg, err := resolvePracticeConfig(ctx, cmd, practice, presets)
	if err != nil {
		return err
	}
	if err := generator.ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	saved, err := presets.Save(ctx, args[0], cfg)
	if err != nil {
		return fmt.Errorf("failed to save preset: %w", err)
	}
	logErrf("Saved preset %q (%s)\n", saved.Name, saved.ID)
	return nil
}

func runPresetsDelete(ctx context.Context, _ *cobra.Command, _ config.FileConfig, presets *preset.Manager, args []string) error {
	p, err := presets.Find(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to find preset %q: %w", args[0], err)
	}
	if err := presets.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}
	logErrf("Deleted preset %q\n", p.Name)
	return nil
}

func runPresetsExport(ctx context.Context, cmd *cobra.Command, _ config.FileConfig, presets *preset.Manager, args []string) error {
	list, err := presets.List(ctx)
	if err != nil {
		return err
	}
	if args[0] == "-" {
		return preset.Export(cmd.OutOrStdout(), list)
	}
	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := preset.Export(f, list); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	logErrf("Exported %d presets to %s\n", len(list), args[0])
	return nil
}

func runPresetsImport(ctx context.Context, cmd *cobra.Command, _ config.FileConfig, presets *preset.Manager, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open import file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				// Best-effort close for read-only file.
				_ = cerr
			}
		}()
		r = f
	}
	imported, err := preset.Import(r)
	if err != nil {
		return err
	}
	for _, p := range imported {
		if err := generator.ValidateConfig(p.Config); err != nil {
			return fmt.Errorf("invalid preset %q:\n%w", p.Name, err)
		}
	}
	existing, err := presets.List(ctx)
	if err != nil {
		return err
	}
	if err := presets.Replace(ctx, preset.Merge(existing, imported)); err != nil {
		return fmt.Errorf("failed to save presets: %w", err)
	}
	logErrf("Imported %d presets\n", len(imported))
	return nil
}
