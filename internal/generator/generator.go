// Package generator builds drill problems.
package generator

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/abacus/internal/model"
)

// DefaultSubtractProbability is the chance that an add-less row after the first is subtracted.
const DefaultSubtractProbability = 0.4

// MaxDigits bounds the length of a single operand. ValidateConfig also caps the
// combined multiply digits at MaxProductDigits.
const MaxDigits = 9

// Generator produces randomized drill problems.
type Generator struct {
	rnd *rand.Rand

	// SubtractProbability starts at DefaultSubtractProbability.
	SubtractProbability float64
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a Generator with a fixed seed.
func NewWithSeed(seed int64) *Generator {
	return &Generator{
		rnd:                 rand.New(rand.NewSource(seed)),
		SubtractProbability: DefaultSubtractProbability,
	}
}

// ParseDigitSpec parses "n" or "a-b" into its digit counts.
func ParseDigitSpec(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("digit spec is empty")
	}
	parts := strings.Split(spec, "-")
	if len(parts) > 2 {
		return nil, fmt.Errorf("digit spec %q must be a count or a pair like 3-2", spec)
	}
	counts := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid digit count %q in %q", part, spec)
		}
		if n < 1 || n > MaxDigits {
			return nil, fmt.Errorf("digit count %d in %q must be between 1 and %d", n, spec, MaxDigits)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

// ResolveDigits picks the digit count for one operand. A pair resolves to either side uniformly.
// An unparseable spec resolves to 1.
func (g *Generator) ResolveDigits(spec string) int {
	counts, err := ParseDigitSpec(spec)
	if err != nil {
		return 1
	}
	return counts[g.rnd.Intn(len(counts))]
}

// NumberWithDigits returns a uniform integer with exactly d digits.
func (g *Generator) NumberWithDigits(d int) int64 {
	lo, hi := DigitRange(d)
	return lo + g.rnd.Int63n(hi-lo+1)
}

// DigitRange returns the closed range of d-digit integers. d is clamped to [1, MaxDigits].
func DigitRange(d int) (lo, hi int64) {
	if d < 1 {
		d = 1
	}
	if d > MaxDigits {
		d = MaxDigits
	}
	lo = pow10(d - 1)
	hi = pow10(d) - 1
	return lo, hi
}

// Generate builds one problem for the configured operation.
func (g *Generator) Generate(cfg model.PracticeConfig) model.DrillProblem {
	var problem model.DrillProblem
	switch cfg.Operation {
	case model.OpMultiply:
		problem = g.multiply(cfg)
	case model.OpDivide:
		problem = g.divide(cfg)
	default:
		problem = g.addLess(cfg)
	}
	problem.ID = uuid.NewString()
	return problem
}

// GenerateSet builds count independent problems.
func (g *Generator) GenerateSet(cfg model.PracticeConfig, count int) []model.DrillProblem {
	if count <= 0 {
		return nil
	}
	out := make([]model.DrillProblem, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, g.Generate(cfg))
	}
	return out
}

func (g *Generator) addLess(cfg model.PracticeConfig) model.DrillProblem {
	rows := cfg.Rows
	if rows < 1 {
		rows = 1
	}
	numbers := make([]int64, 0, rows)
	lines := make([]string, 0, rows)
	var sum int64
	for i := 0; i < rows; i++ {
		n := g.NumberWithDigits(g.ResolveDigits(cfg.Digits))
		if i > 0 && cfg.SumsType == model.SumsAddLess && g.rnd.Float64() < g.SubtractProbability {
			n = -n
		}
		numbers = append(numbers, n)
		lines = append(lines, strconv.FormatInt(n, 10))
		sum += n
	}
	return model.DrillProblem{
		Operation: model.OpAddLess,
		Numbers:   numbers,
		Answer:    float64(sum),
		Display:   strings.Join(lines, "\n"),
	}
}

func (g *Generator) multiply(cfg model.PracticeConfig) model.DrillProblem {
	a := g.NumberWithDigits(cfg.MultiplicandDigits)
	b := g.NumberWithDigits(cfg.MultiplicatorDigits)
	return model.DrillProblem{
		Operation: model.OpMultiply,
		Numbers:   []int64{a, b},
		Answer:    float64(a * b),
		Display:   fmt.Sprintf("%d × %d", a, b),
	}
}

// divide keeps the dividend inside its digit range when it can. If rounding down to a
// multiple of the divisor reaches zero, the dividend becomes divisor × k for k in [1, 9],
// which may leave the requested range.
func (g *Generator) divide(cfg model.PracticeConfig) model.DrillProblem {
	divisor := g.NumberWithDigits(cfg.DivisorDigits)
	candidate := g.NumberWithDigits(cfg.DividendDigits)
	dividend := candidate - candidate%divisor
	if dividend == 0 {
		dividend = divisor * (1 + g.rnd.Int63n(9))
	}
	return model.DrillProblem{
		Operation: model.OpDivide,
		Numbers:   []int64{dividend, divisor},
		Answer:    float64(dividend / divisor),
		Display:   fmt.Sprintf("%d ÷ %d", dividend, divisor),
	}
}

func pow10(n int) int64 {
	out := int64(1)
	for i := 0; i < n; i++ {
		out *= 10
	}
	return out
}
