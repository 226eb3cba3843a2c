package series

import (
	"math"
	"slices"

	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RollingOptions configures a moving window reduction.
type RollingOptions struct {
	// WindowSize is the number of elements in each window.
	WindowSize int
	// Weights, when set, must hold WindowSize factors that multiply the
	// values at the corresponding window positions.
	Weights []float64
	// MinPeriods is the number of present values a window needs to produce
	// a result. Zero means WindowSize.
	MinPeriods int
	// Center aligns each window on its element instead of ending on it.
	Center bool
}

func (o RollingOptions) validate(op string) (RollingOptions, error) {
	if o.WindowSize <= 0 {
		return o, dferrors.NewInvalidInputError(op, "window size must be positive")
	}
	if o.Weights != nil && len(o.Weights) != o.WindowSize {
		return o, dferrors.NewInvalidInputError(op, "weights must have the same length as the window")
	}
	if o.MinPeriods <= 0 {
		o.MinPeriods = o.WindowSize
	}
	if o.MinPeriods > o.WindowSize {
		return o, dferrors.NewInvalidInputError(op, "min periods cannot exceed the window size")
	}
	return o, nil
}

// RollingMax applies a moving maximum.
func (s *Series) RollingMax(opts RollingOptions) (*Series, error) {
	return s.rolling("RollingMax", opts, floats.Max)
}

// RollingMin applies a moving minimum.
func (s *Series) RollingMin(opts RollingOptions) (*Series, error) {
	return s.rolling("RollingMin", opts, floats.Min)
}

// RollingSum applies a moving sum.
func (s *Series) RollingSum(opts RollingOptions) (*Series, error) {
	return s.rolling("RollingSum", opts, floats.Sum)
}

// RollingMean applies a moving mean.
func (s *Series) RollingMean(opts RollingOptions) (*Series, error) {
	return s.rolling("RollingMean", opts, func(xs []float64) float64 { return stat.Mean(xs, nil) })
}

// RollingVar applies a moving sample variance.
func (s *Series) RollingVar(opts RollingOptions) (*Series, error) {
	return s.rolling("RollingVar", opts, rollingVariance)
}

// RollingStd applies a moving sample standard deviation.
func (s *Series) RollingStd(opts RollingOptions) (*Series, error) {
	return s.rolling("RollingStd", opts, func(xs []float64) float64 {
		return math.Sqrt(rollingVariance(xs))
	})
}

// RollingMedian applies a moving median.
func (s *Series) RollingMedian(opts RollingOptions) (*Series, error) {
	return s.rolling("RollingMedian", opts, func(xs []float64) float64 {
		sorted := slices.Clone(xs)
		slices.Sort(sorted)
		return quantileSorted(sorted, 0.5, InterpolLinear)
	})
}

func rollingVariance(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Variance(xs, nil)
}

// rolling evaluates reduce over every window of present (weighted) values.
// Results are Float64.
func (s *Series) rolling(op string, opts RollingOptions, reduce func([]float64) float64) (*Series, error) {
	if !s.dtype.IsNumeric() {
		return nil, dferrors.NewTypeMismatchError(op, s.name,
			"rolling functions are not supported for dtype %s", s.dtype)
	}
	opts, err := opts.validate(op)
	if err != nil {
		return nil, err
	}

	vals, valid := float64s(s.array)
	n := len(vals)
	out := make([]float64, n)
	outValid := make([]bool, n)

	offset := 0
	if opts.Center {
		offset = opts.WindowSize / 2
	}
	window := make([]float64, 0, opts.WindowSize)
	for i := range n {
		start := i - opts.WindowSize + 1 + offset
		window = window[:0]
		for j := max(start, 0); j <= i+offset && j < n; j++ {
			if !valid[j] {
				continue
			}
			v := vals[j]
			if opts.Weights != nil {
				v *= opts.Weights[j-start]
			}
			window = append(window, v)
		}
		if len(window) < opts.MinPeriods {
			continue
		}
		out[i] = reduce(window)
		outValid[i] = !math.IsNaN(out[i]) || hasNaN(window)
	}
	return s.derive(buildNumeric(dtype.Float64, out, outValid, s.mem)), nil
}

func hasNaN(xs []float64) bool {
	return slices.ContainsFunc(xs, math.IsNaN)
}
