package tui

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/verte-zerg/abacus/internal/generator"
	"github.com/verte-zerg/abacus/internal/model"
)

var (
	digitChoices         = []string{"1", "2", "2-1", "3", "3-2", "4", "4-3", "5", "5-4"}
	rowChoices           = []int{3, 5, 7, 10, 12, 15}
	multiplicandChoices  = []int{1, 2, 3, 4, 5}
	multiplicatorChoices = []int{1, 2, 3, 4, 5}
	dividendChoices      = []int{2, 3, 4, 5, 6}
	divisorChoices       = []int{1, 2, 3}
	timeChoices          = []int{1, 2, 3, 5}
	sumsChoices          = []int{5, 10, 15, 20}
)

// ErrFormAborted is returned when the user closes the configuration form.
var ErrFormAborted = errors.New("configuration cancelled")

// ConfigForm edits a practice configuration and an optional preset name.
type ConfigForm struct {
	cfg        model.PracticeConfig
	presetName string
	form       *huh.Form
}

// NewConfigForm builds the form around a copy of cfg.
func NewConfigForm(cfg model.PracticeConfig) *ConfigForm {
	f := &ConfigForm{cfg: cfg}
	c := &f.cfg
	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[model.Mode]().
				Title("Mode").
				Options(
					huh.NewOption("Timed", model.ModeTimed),
					huh.NewOption("Oral", model.ModeOral),
				).
				Value(&c.Mode),
			huh.NewSelect[model.Operation]().
				Title("Operation").
				Options(
					huh.NewOption("Add/Less", model.OpAddLess),
					huh.NewOption("Multiply", model.OpMultiply),
					huh.NewOption("Divide", model.OpDivide),
				).
				Value(&c.Operation),
		).Title("Abacus practice"),
		huh.NewGroup(
			huh.NewSelect[model.SumsType]().
				Title("Sums type").
				Options(
					huh.NewOption("Addition", model.SumsAddition),
					huh.NewOption("Add/Less", model.SumsAddLess),
				).
				Value(&c.SumsType),
			huh.NewSelect[string]().
				Title("No of digits").
				Options(huh.NewOptions(withChoice(digitChoices, c.Digits)...)...).
				Value(&c.Digits),
			intSelect("No of rows", rowChoices, &c.Rows, ""),
		).WithHideFunc(func() bool { return c.Operation != model.OpAddLess }),
		huh.NewGroup(
			intSelect("Multiplicand digits", multiplicandChoices, &c.MultiplicandDigits, ""),
			intSelect("Multiplicator digits", multiplicatorChoices, &c.MultiplicatorDigits, ""),
		).WithHideFunc(func() bool { return c.Operation != model.OpMultiply }),
		huh.NewGroup(
			intSelect("Dividend digits", dividendChoices, &c.DividendDigits, ""),
			intSelect("Divisor digits", divisorChoices, &c.DivisorDigits, ""),
		).WithHideFunc(func() bool { return c.Operation != model.OpDivide }),
		huh.NewGroup(
			intSelect("Time to practice", timeChoices, &c.TimeLimit, " min"),
		).WithHideFunc(func() bool { return c.Mode != model.ModeTimed }),
		huh.NewGroup(
			intSelect("No of sums", sumsChoices, &c.NumberOfSums, ""),
			huh.NewSelect[float64]().
				Title("Wait time interval").
				Options(intervalOptions(c.Interval)...).
				Value(&c.Interval),
		).WithHideFunc(func() bool { return c.Mode != model.ModeOral }),
		huh.NewGroup(
			huh.NewInput().
				Title("Save as preset").
				Description("Leave empty to skip").
				Value(&f.presetName).
				Validate(func(s string) error {
					if len(strings.TrimSpace(s)) > 40 {
						return fmt.Errorf("name is too long")
					}
					return nil
				}),
		),
	)
	return f
}

// Run shows the form and returns the edited configuration and preset name.
func (f *ConfigForm) Run() (model.PracticeConfig, string, error) {
	if err := f.form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return model.PracticeConfig{}, "", ErrFormAborted
		}
		return model.PracticeConfig{}, "", fmt.Errorf("failed to run form: %w", err)
	}
	return f.Result()
}

// Result validates and returns the current form values.
func (f *ConfigForm) Result() (model.PracticeConfig, string, error) {
	if err := generator.ValidateConfig(f.cfg); err != nil {
		return model.PracticeConfig{}, "", err
	}
	return f.cfg, strings.TrimSpace(f.presetName), nil
}

func intSelect(title string, choices []int, value *int, suffix string) *huh.Select[int] {
	values := withChoice(choices, *value)
	opts := make([]huh.Option[int], len(values))
	for i, v := range values {
		opts[i] = huh.NewOption(strconv.Itoa(v)+suffix, v)
	}
	return huh.NewSelect[int]().Title(title).Options(opts...).Value(value)
}

func intervalOptions(current float64) []huh.Option[float64] {
	values := []float64{}
	for v := generator.MinInterval; v <= generator.MaxInterval; v += 0.5 {
		values = append(values, v)
	}
	values = withChoice(values, current)
	opts := make([]huh.Option[float64], len(values))
	for i, v := range values {
		opts[i] = huh.NewOption(strconv.FormatFloat(v, 'f', -1, 64)+"s", v)
	}
	return opts
}

// withChoice keeps the current value selectable when it is not one of the presets.
func withChoice[T int | float64 | string](choices []T, current T) []T {
	var zero T
	if current == zero || slices.Contains(choices, current) {
		return choices
	}
	out := append(slices.Clone(choices), current)
	if _, isString := any(current).(string); !isString {
		slices.Sort(out)
	}
	return out
}
