package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/abacus/internal/config"
	"github.com/verte-zerg/abacus/internal/model"
	"github.com/verte-zerg/abacus/internal/stats"
	"github.com/verte-zerg/abacus/internal/statsui"
	"github.com/verte-zerg/abacus/internal/store"
)

const defaultCurveWindow = 10

var (
	statsSince       string
	statsLast        int
	statsCurveWindow int
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats (filter with --mode and --op)",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := statsConfig(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if !stats.IsTerminal(os.Stdout) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		report, err := stats.BuildReport(ctx, st, cfg)
		if err != nil {
			return err
		}
		return report.Render(cmd.OutOrStdout(), cfg, stats.TerminalWidth())
	}

	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func statsConfig(cmd *cobra.Command) (model.StatsConfig, error) {
	if statsLast < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow <= 0 {
		return model.StatsConfig{}, fmt.Errorf("--curve-window must be > 0")
	}
	cfg := model.StatsConfig{
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	if cmd.Flags().Changed("mode") {
		cfg.Mode = model.Mode(practiceMode)
	}
	if cmd.Flags().Changed("op") {
		cfg.Operation = model.Operation(practiceOp)
	}
	return cfg, nil
}
