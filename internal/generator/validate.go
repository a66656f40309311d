package generator

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/verte-zerg/abacus/internal/model"
)

// Interval bounds for oral drills, in seconds.
const (
	MinInterval = 1.0
	MaxInterval = 10.0
)

// MaxRows bounds add-less problems.
const MaxRows = 50

// MaxProductDigits bounds multiplicand plus multiplicator digits. Products below 10^15
// stay under 2^53, so the float64 answer is exact.
const MaxProductDigits = 15

// ValidateConfig reports every setting that would make a drill unplayable.
func ValidateConfig(cfg model.PracticeConfig) error {
	var errs []error
	switch cfg.Mode {
	case model.ModeTimed:
		if cfg.TimeLimit < 1 {
			errs = append(errs, fmt.Errorf("time limit must be at least 1 minute, got %d", cfg.TimeLimit))
		}
	case model.ModeOral:
		if cfg.NumberOfSums < 1 {
			errs = append(errs, fmt.Errorf("number of sums must be at least 1, got %d", cfg.NumberOfSums))
		}
		if cfg.Interval < MinInterval || cfg.Interval > MaxInterval {
			errs = append(errs, fmt.Errorf("interval must be between %.0f and %.0f seconds, got %g", MinInterval, MaxInterval, cfg.Interval))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", cfg.Mode))
	}

	switch cfg.Operation {
	case model.OpAddLess:
		if cfg.SumsType != model.SumsAddition && cfg.SumsType != model.SumsAddLess {
			errs = append(errs, fmt.Errorf("unknown sums type %q", cfg.SumsType))
		}
		if _, err := ParseDigitSpec(cfg.Digits); err != nil {
			errs = append(errs, err)
		}
		if cfg.Rows < 1 || cfg.Rows > MaxRows {
			errs = append(errs, fmt.Errorf("rows must be between 1 and %d, got %d", MaxRows, cfg.Rows))
		}
	case model.OpMultiply:
		errs = append(errs, digitsInRange("multiplicand", cfg.MultiplicandDigits), digitsInRange("multiplicator", cfg.MultiplicatorDigits))
		if sum := cfg.MultiplicandDigits + cfg.MultiplicatorDigits; sum > MaxProductDigits {
			errs = append(errs, fmt.Errorf("multiplicand and multiplicator digits must add up to at most %d, got %d", MaxProductDigits, sum))
		}
	case model.OpDivide:
		errs = append(errs, digitsInRange("dividend", cfg.DividendDigits), digitsInRange("divisor", cfg.DivisorDigits))
	default:
		errs = append(errs, fmt.Errorf("unknown operation %q", cfg.Operation))
	}
	return errors.Join(errs...)
}

func digitsInRange(name string, d int) error {
	if d < 1 || d > MaxDigits {
		return fmt.Errorf("%s digits must be between 1 and %d, got %d", name, MaxDigits, d)
	}
	return nil
}

// AnswerLen returns the longest answer a valid cfg can produce, counting a leading minus sign.
func AnswerLen(cfg model.PracticeConfig) int {
	switch cfg.Operation {
	case model.OpMultiply:
		return cfg.MultiplicandDigits + cfg.MultiplicatorDigits
	case model.OpDivide:
		return max(cfg.DividendDigits, 1)
	default:
		counts, err := ParseDigitSpec(cfg.Digits)
		if err != nil {
			return 1
		}
		_, hi := DigitRange(slices.Max(counts))
		total := hi * int64(max(cfg.Rows, 1))
		return len(strconv.FormatInt(total, 10)) + 1
	}
}
