// Package main provides the CLI entrypoint for abacus.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/abacus/internal/ai"
	"github.com/verte-zerg/abacus/internal/config"
	"github.com/verte-zerg/abacus/internal/generator"
	"github.com/verte-zerg/abacus/internal/model"
	"github.com/verte-zerg/abacus/internal/preset"
	"github.com/verte-zerg/abacus/internal/tui"
)

const defaultProblemCount = 10

var (
	practiceMode          string
	practiceOp            string
	practiceSums          string
	practiceDigits        string
	practiceRows          int
	practiceTime          int
	practiceInterval      float64
	practiceSumsCount     int
	practiceMultiplicand  int
	practiceMultiplicator int
	practiceDividend      int
	practiceDivisor       int
	practicePreset        string
	practiceConfigure     bool

	problemsCount   int
	problemsAnswers bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "abacus",
		Short:         "Mental arithmetic drill trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	defaults := model.DefaultPracticeConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&practiceMode, "mode", string(defaults.Mode), "drill mode: timed or oral")
	flags.StringVar(&practiceOp, "op", string(defaults.Operation), "operation: add-less, multiply or divide")
	flags.StringVar(&practiceSums, "sums", string(defaults.SumsType), "add-less rows: addition or add-less")
	flags.StringVar(&practiceDigits, "digits", defaults.Digits, `digits per row, e.g. "2" or "3-2"`)
	flags.IntVar(&practiceRows, "rows", defaults.Rows, "rows per add-less problem")
	flags.IntVar(&practiceTime, "time", defaults.TimeLimit, "timed drill length in minutes")
	flags.Float64Var(&practiceInterval, "interval", defaults.Interval, "oral pause between numbers in seconds")
	flags.IntVar(&practiceSumsCount, "sums-count", defaults.NumberOfSums, "problems per oral drill")
	flags.IntVar(&practiceMultiplicand, "multiplicand", defaults.MultiplicandDigits, "multiplicand digits")
	flags.IntVar(&practiceMultiplicator, "multiplicator", defaults.MultiplicatorDigits, "multiplicator digits")
	flags.IntVar(&practiceDividend, "dividend", defaults.DividendDigits, "dividend digits")
	flags.IntVar(&practiceDivisor, "divisor", defaults.DivisorDigits, "divisor digits")
	flags.StringVar(&practicePreset, "preset", "", "load a saved preset by id or name")
	rootCmd.Flags().BoolVar(&practiceConfigure, "configure", false, "edit the configuration in a form before practicing")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newProblemsCmd())
	rootCmd.AddCommand(newPresetsCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
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

	cfg, err := resolvePracticeConfig(ctx, cmd, fileCfg.Practice, env.presets)
	if err != nil {
		return err
	}

	if practiceConfigure {
		edited, name, err := tui.NewConfigForm(cfg).Run()
		if errors.Is(err, tui.ErrFormAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		cfg = edited
		if name != "" {
			saved, err := env.presets.Save(ctx, name, cfg)
			if err != nil {
				return fmt.Errorf("failed to save preset: %w", err)
			}
			logErrf("Saved preset %q (%s)\n", saved.Name, saved.ID)
		}
	}

	if err := generator.ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	deps := tui.Deps{
		Store:     env.store,
		Generator: generator.New(),
		Coach:     buildCoach(ctx, fileCfg.Coach, env.logger),
		Narration: buildNarration(ctx, fileCfg, env.logger),
		Logger:    env.logger,
	}
	m := tui.NewModel(cfg, deps)
	defer m.Stop()
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resolvePracticeConfig layers the config file, then a preset, then explicitly set flags.
func resolvePracticeConfig(ctx context.Context, cmd *cobra.Command, file config.PracticeConfig, presets *preset.Manager) (model.PracticeConfig, error) {
	cfg := model.DefaultPracticeConfig()
	applyFileConfig(&cfg, file)

	name := config.String(file.Preset, "")
	if cmd.Flags().Changed("preset") {
		name = practicePreset
	}
	if name != "" {
		p, err := presets.Find(ctx, name)
		if err != nil {
			return model.PracticeConfig{}, fmt.Errorf("failed to load preset %q: %w", name, err)
		}
		cfg = p.Config
	}

	applyFlag(cmd, "mode", (*string)(&cfg.Mode), practiceMode)
	applyFlag(cmd, "op", (*string)(&cfg.Operation), practiceOp)
	applyFlag(cmd, "sums", (*string)(&cfg.SumsType), practiceSums)
	applyFlag(cmd, "digits", &cfg.Digits, practiceDigits)
	applyFlag(cmd, "rows", &cfg.Rows, practiceRows)
	applyFlag(cmd, "time", &cfg.TimeLimit, practiceTime)
	applyFlag(cmd, "interval", &cfg.Interval, practiceInterval)
	applyFlag(cmd, "sums-count", &cfg.NumberOfSums, practiceSumsCount)
	applyFlag(cmd, "multiplicand", &cfg.MultiplicandDigits, practiceMultiplicand)
	applyFlag(cmd, "multiplicator", &cfg.MultiplicatorDigits, practiceMultiplicator)
	applyFlag(cmd, "dividend", &cfg.DividendDigits, practiceDividend)
	applyFlag(cmd, "divisor", &cfg.DivisorDigits, practiceDivisor)
	return cfg, nil
}

func applyFileConfig(cfg *model.PracticeConfig, file config.PracticeConfig) {
	applyValue((*string)(&cfg.Mode), file.Mode)
	applyValue((*string)(&cfg.Operation), file.Operation)
	applyValue((*string)(&cfg.SumsType), file.SumsType)
	applyValue(&cfg.Digits, file.Digits)
	applyValue(&cfg.Rows, file.Rows)
	applyValue(&cfg.TimeLimit, file.TimeLimit)
	applyValue(&cfg.Interval, file.Interval)
	applyValue(&cfg.NumberOfSums, file.NumberOfSums)
	applyValue(&cfg.MultiplicandDigits, file.MultiplicandDigits)
	applyValue(&cfg.MultiplicatorDigits, file.MultiplicatorDigits)
	applyValue(&cfg.DividendDigits, file.DividendDigits)
	applyValue(&cfg.DivisorDigits, file.DivisorDigits)
}

func applyValue[T any](target, value *T) {
	if value == nil {
		return
	}
	*target = *value
}

func applyFlag[T any](cmd *cobra.Command, name string, target *T, value T) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func newProblemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "problems",
		Short: "Print a worksheet of problems",
		Args:  cobra.NoArgs,
		RunE:  runProblemsCmd,
	}
	cmd.Flags().IntVar(&problemsCount, "count", defaultProblemCount, "number of problems")
	cmd.Flags().BoolVar(&problemsAnswers, "answers", false, "print answers after the problems")
	return cmd
}

func runProblemsCmd(cmd *cobra.Command, _ []string) error {
	if problemsCount <= 0 {
		return fmt.Errorf("--count must be > 0")
	}
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

	cfg, err := resolvePracticeConfig(ctx, cmd, fileCfg.Practice, env.presets)
	if err != nil {
		return err
	}
	if err := generator.ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	problems := generator.New().GenerateSet(cfg, problemsCount)
	return writeWorksheet(cmd.OutOrStdout(), problems, problemsAnswers)
}

func writeWorksheet(w io.Writer, problems []model.DrillProblem, answers bool) error {
	for i, p := range problems {
		if _, err := fmt.Fprintf(w, "%d. %s =\n", i+1, tui.InlineProblem(p)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if !answers {
		return nil
	}
	if _, err := fmt.Fprintln(w, "\nAnswers:"); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for i, p := range problems {
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, tui.FormatAnswer(p.Answer)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	d := model.DefaultPracticeConfig()
	return fmt.Sprintf(`# abacus configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# mode = %q            # timed or oral
# op = %q          # add-less, multiply or divide
# sums = %q        # addition or add-less
# digits = %q             # Digits per row, e.g. "2" or "3-2"
# rows = %d                 # Rows per add-less problem
# time = %d                 # Timed drill length in minutes
# interval = %.1f           # Oral pause between numbers in seconds
# sums-count = %d           # Problems per oral drill
# multiplicand = %d         # Multiplicand digits
# multiplicator = %d        # Multiplicator digits
# dividend = %d             # Dividend digits
# divisor = %d              # Divisor digits
# preset = "warmup"         # Saved preset loaded by default

[coach]
# provider = "auto"         # auto, gemini, ollama or none
# model = ""                # Model name; empty uses the provider default
# ollama-url = %q
# timeout = 15              # Seconds to wait for a tip

[narration]
# provider = "auto"         # auto, gemini, command or none (numbers flash on screen)
# voice = %q              # Gemini voice
# command = "espeak"        # Text-to-speech command
# player = "aplay -q"       # Audio player for generated speech

[log]
# level = "info"
# file = %q
`,
		d.Mode,
		d.Operation,
		d.SumsType,
		d.Digits,
		d.Rows,
		d.TimeLimit,
		d.Interval,
		d.NumberOfSums,
		d.MultiplicandDigits,
		d.MultiplicatorDigits,
		d.DividendDigits,
		d.DivisorDigits,
		ai.DefaultOllamaURL,
		ai.DefaultGeminiVoice,
		config.DefaultLogPath(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logWarn(logger *zap.Logger, msg string, err error) {
	logger.Warn(msg, zap.Error(err))
	logErrf("%s: %v\n", msg, err)
}
