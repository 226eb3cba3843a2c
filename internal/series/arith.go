package series

import (
	"math"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
)

type binaryOp uint8

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
	opRem
)

var opNames = [...]string{"Add", "Sub", "Mul", "Div", "Rem"}

// Add returns s + other. other is a *Series or a scalar. Adding two Utf8
// series concatenates their strings.
func (s *Series) Add(other any) (*Series, error) { return s.arithmetic(opAdd, other) }

// Sub returns s - other.
func (s *Series) Sub(other any) (*Series, error) { return s.arithmetic(opSub, other) }

// Mul returns s * other.
func (s *Series) Mul(other any) (*Series, error) { return s.arithmetic(opMul, other) }

// Div returns s / other. Division always produces a float series.
func (s *Series) Div(other any) (*Series, error) { return s.arithmetic(opDiv, other) }

// Rem returns the remainder of s / other. An integer remainder by zero is
// null.
func (s *Series) Rem(other any) (*Series, error) { return s.arithmetic(opRem, other) }

// scalarType picks the data type a scalar operand takes when combined with
// a series of type like.
func scalarType(v any, like dtype.DataType) (dtype.DataType, error) {
	if v == nil {
		return like, nil
	}
	switch v.(type) {
	case float32, float64:
		if like.IsFloat() {
			return like, nil
		}
		return dtype.Float64, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		if like.IsNumeric() {
			if _, err := dtype.Coerce(v, like, true); err == nil {
				return like, nil
			}
			return dtype.Float64, nil
		}
	case string:
		if like.Kind == dtype.KindCategorical {
			return dtype.Utf8, nil
		}
	}
	return dtype.Infer([]any{v})
}

// operand turns other into a series the caller must release.
func (s *Series) operand(op string, other any) (*Series, error) {
	if o, ok := other.(*Series); ok {
		return o.Clone(), nil
	}
	dt, err := scalarType(other, s.dtype)
	if err != nil {
		return nil, err
	}
	rhs, err := Full(s.name, other, 1, dt, s.mem)
	if err != nil {
		return nil, dferrors.NewTypeMismatchError(op, s.name, "invalid operand %v", other)
	}
	return rhs, nil
}

func isText(dt dtype.DataType) bool {
	return dt.Kind == dtype.KindUtf8 || dt.Kind == dtype.KindCategorical
}

func (s *Series) arithmetic(op binaryOp, other any) (*Series, error) {
	name := opNames[op]
	rhs, err := s.operand(name, other)
	if err != nil {
		return nil, err
	}
	defer rhs.Release()

	n, ok := broadcastLen(s.Len(), rhs.Len())
	if !ok {
		return nil, dferrors.NewShapeError(name, s.Len(), rhs.Len())
	}

	if isText(s.dtype) && isText(rhs.dtype) && op == opAdd {
		return s.concatStrings(rhs, n), nil
	}
	bothBool := !s.dtype.IsNumeric() && !rhs.dtype.IsNumeric()
	if bothBool || !arithmeticOperand(s.dtype) || !arithmeticOperand(rhs.dtype) {
		return nil, dferrors.NewTypeMismatchError(name, s.name,
			"unsupported operand types %s and %s", s.dtype, rhs.dtype)
	}

	out, err := dtype.Promote(s.dtype, rhs.dtype)
	if err != nil {
		return nil, err
	}
	if op == opDiv && !out.IsFloat() {
		out = dtype.Float64
	}

	switch {
	case out.IsFloat():
		a, av := float64s(s.array)
		b, bv := float64s(rhs.array)
		vals, valid := binaryKernel(a, b, av, bv, n, floatOp(op))
		return s.derive(buildNumeric(out, vals, valid, s.mem)), nil
	case out.IsSigned():
		a, av := int64s(s.array)
		b, bv := int64s(rhs.array)
		vals, valid := binaryKernel(a, b, av, bv, n, integerOp[int64](op))
		return s.derive(buildNumeric(out, vals, valid, s.mem)), nil
	default:
		a, av := uint64s(s.array)
		b, bv := uint64s(rhs.array)
		vals, valid := binaryKernel(a, b, av, bv, n, integerOp[uint64](op))
		return s.derive(buildNumeric(out, vals, valid, s.mem)), nil
	}
}

func arithmeticOperand(dt dtype.DataType) bool {
	return dt.IsNumeric() || dt.Kind == dtype.KindBool
}

func (s *Series) concatStrings(rhs *Series, n int) *Series {
	b := array.NewStringBuilder(s.mem)
	defer b.Release()
	b.Reserve(n)
	for i := range n {
		l, r := valueAt(s.array, at(i, s.Len())), valueAt(rhs.array, at(i, rhs.Len()))
		if l == nil || r == nil {
			b.AppendNull()
			continue
		}
		var sb strings.Builder
		sb.WriteString(l.(string))
		sb.WriteString(r.(string))
		b.Append(sb.String())
	}
	return s.derive(b.NewArray())
}

// Abs returns the absolute value of each element.
func (s *Series) Abs() (*Series, error) {
	switch {
	case s.dtype.IsFloat():
		vals, valid := float64s(s.array)
		return s.derive(buildNumeric(s.dtype, unaryKernel(vals, valid, math.Abs), valid, s.mem)), nil
	case s.dtype.IsSigned():
		vals, valid := int64s(s.array)
		abs := unaryKernel(vals, valid, func(v int64) int64 {
			if v < 0 {
				return -v
			}
			return v
		})
		return s.derive(buildNumeric(s.dtype, abs, valid, s.mem)), nil
	case s.dtype.IsUnsigned():
		return s.Clone(), nil
	}
	return nil, dferrors.NewUnsupportedTypeError("Abs", s.dtype.String())
}

// Floor rounds float elements down. Integer series are returned unchanged.
func (s *Series) Floor() (*Series, error) {
	return s.roundWith("Floor", math.Floor)
}

// Round rounds float elements to the given number of decimals.
func (s *Series) Round(decimals int) (*Series, error) {
	scale := math.Pow(10, float64(decimals))
	return s.roundWith("Round", func(v float64) float64 {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return v
		}
		return math.Round(v*scale) / scale
	})
}

func (s *Series) roundWith(op string, fn func(float64) float64) (*Series, error) {
	switch {
	case s.dtype.IsFloat():
		vals, valid := float64s(s.array)
		return s.derive(buildNumeric(s.dtype, unaryKernel(vals, valid, fn), valid, s.mem)), nil
	case s.dtype.IsInteger():
		return s.Clone(), nil
	}
	return nil, dferrors.NewUnsupportedTypeError(op, s.dtype.String())
}
