package series

import (
	"math"

	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
)

type compareOp uint8

const (
	cmpEq compareOp = iota
	cmpNeq
	cmpGt
	cmpGtEq
	cmpLt
	cmpLtEq
)

var compareNames = [...]string{"Eq", "Neq", "Gt", "GtEq", "Lt", "LtEq"}

// Eq returns an element-wise equality mask against a series or scalar.
// Comparing against a null yields null.
func (s *Series) Eq(other any) (*Series, error) { return s.compare(cmpEq, other) }

// Neq returns an element-wise inequality mask.
func (s *Series) Neq(other any) (*Series, error) { return s.compare(cmpNeq, other) }

// Gt returns an element-wise greater-than mask.
func (s *Series) Gt(other any) (*Series, error) { return s.compare(cmpGt, other) }

// GtEq returns an element-wise greater-or-equal mask.
func (s *Series) GtEq(other any) (*Series, error) { return s.compare(cmpGtEq, other) }

// Lt returns an element-wise less-than mask.
func (s *Series) Lt(other any) (*Series, error) { return s.compare(cmpLt, other) }

// LtEq returns an element-wise less-or-equal mask.
func (s *Series) LtEq(other any) (*Series, error) { return s.compare(cmpLtEq, other) }

func (s *Series) compare(op compareOp, other any) (*Series, error) {
	name := compareNames[op]
	rhs, err := s.operand(name, other)
	if err != nil {
		return nil, err
	}
	defer rhs.Release()

	n, ok := broadcastLen(s.Len(), rhs.Len())
	if !ok {
		return nil, dferrors.NewShapeError(name, s.Len(), rhs.Len())
	}
	if _, err := dtype.Promote(s.dtype, rhs.dtype); err != nil {
		return nil, dferrors.NewTypeMismatchError(name, s.name,
			"cannot compare %s with %s", s.dtype, rhs.dtype)
	}

	vals := make([]bool, n)
	valid := make([]bool, n)
	for i := range n {
		l, r := valueAt(s.array, at(i, s.Len())), valueAt(rhs.array, at(i, rhs.Len()))
		if l == nil || r == nil {
			continue
		}
		vals[i], valid[i] = applyCompare(op, l, r), true
	}
	return s.derive(buildBools(vals, valid, s.mem)), nil
}

func applyCompare(op compareOp, l, r any) bool {
	if isNaN(l) || isNaN(r) {
		return op == cmpNeq
	}
	c := Compare(l, r)
	switch op {
	case cmpEq:
		return c == 0
	case cmpNeq:
		return c != 0
	case cmpGt:
		return c > 0
	case cmpGtEq:
		return c >= 0
	case cmpLt:
		return c < 0
	default:
		return c <= 0
	}
}

func isNaN(v any) bool {
	switch x := v.(type) {
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

// IsIn returns a mask marking the elements found in other, which is a
// *Series or a []any. A null element is found only when other holds a null.
func (s *Series) IsIn(other any) (*Series, error) {
	var candidates []any
	switch o := other.(type) {
	case *Series:
		candidates = o.Values()
	case []any:
		candidates = o
	default:
		list, ok := dtype.AsList(other)
		if !ok {
			return nil, dferrors.NewInvalidInputError("IsIn", "expected a series or a slice of values")
		}
		candidates = list
	}

	set := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		v, err := dtype.Coerce(c, s.dtype, false)
		if err != nil || (v == nil && c != nil) {
			continue
		}
		set[keyString(v)] = struct{}{}
	}

	out := make([]bool, s.Len())
	for i := range out {
		_, out[i] = set[keyString(valueAt(s.array, i))]
	}
	return s.derive(buildBools(out, nil, s.mem)), nil
}

// IsFinite marks elements that are neither infinite nor NaN.
func (s *Series) IsFinite() (*Series, error) {
	return s.floatPredicate("IsFinite", func(f float64) bool {
		return !math.IsInf(f, 0) && !math.IsNaN(f)
	}, true)
}

// IsInfinite marks infinite elements.
func (s *Series) IsInfinite() (*Series, error) {
	return s.floatPredicate("IsInfinite", func(f float64) bool { return math.IsInf(f, 0) }, false)
}

// IsNaN marks NaN elements.
func (s *Series) IsNaN() (*Series, error) {
	return s.floatPredicate("IsNaN", math.IsNaN, false)
}

// IsNotNaN marks elements that are not NaN.
func (s *Series) IsNotNaN() (*Series, error) {
	return s.floatPredicate("IsNotNaN", func(f float64) bool { return !math.IsNaN(f) }, true)
}

// floatPredicate evaluates fn over float elements. Integer elements are
// always finite so they take intResult.
func (s *Series) floatPredicate(op string, fn func(float64) bool, intResult bool) (*Series, error) {
	if !s.dtype.IsNumeric() {
		return nil, dferrors.NewTypeMismatchError(op, s.name,
			"operation not supported for dtype %s", s.dtype)
	}
	vals, valid := float64s(s.array)
	out := make([]bool, len(vals))
	for i, v := range vals {
		if !valid[i] {
			continue
		}
		if s.dtype.IsFloat() {
			out[i] = fn(v)
		} else {
			out[i] = intResult
		}
	}
	return s.derive(buildBools(out, valid, s.mem)), nil
}

// PeakMax marks local maxima: elements strictly greater than their
// neighbours. A missing or null neighbour does not disqualify a peak, so
// edges can be peaks.
func (s *Series) PeakMax() (*Series, error) {
	return s.peaks("PeakMax", func(c int) bool { return c > 0 })
}

// PeakMin marks local minima.
func (s *Series) PeakMin() (*Series, error) {
	return s.peaks("PeakMin", func(c int) bool { return c < 0 })
}

func (s *Series) peaks(op string, want func(int) bool) (*Series, error) {
	if !s.dtype.IsNumeric() {
		return nil, dferrors.NewTypeMismatchError(op, s.name,
			"operation not supported for dtype %s", s.dtype)
	}
	n := s.Len()
	out := make([]bool, n)
	beats := func(cur any, j int) bool {
		if j < 0 || j >= n {
			return true
		}
		other := valueAt(s.array, j)
		return other == nil || want(Compare(cur, other))
	}
	for i := range n {
		cur := valueAt(s.array, i)
		if cur == nil {
			continue
		}
		out[i] = beats(cur, i-1) && beats(cur, i+1)
	}
	return s.derive(buildBools(out, nil, s.mem)), nil
}
