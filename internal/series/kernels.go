package series

import (
	"math"

	"golang.org/x/exp/constraints"
)

// broadcastLen returns the length of an element-wise result over operands
// of length a and b. A length-one operand is broadcast.
func broadcastLen(a, b int) (int, bool) {
	switch {
	case a == b:
		return a, true
	case a == 1:
		return b, true
	case b == 1:
		return a, true
	default:
		return 0, false
	}
}

// at maps a result index onto an operand of length n.
func at(i, n int) int {
	if n == 1 {
		return 0
	}
	return i
}

// binaryKernel applies fn to aligned operand pairs. A result is null when
// either input is null or fn reports no value.
func binaryKernel[T Number](a, b []T, av, bv []bool, n int, fn func(x, y T) (T, bool)) ([]T, []bool) {
	out := make([]T, n)
	valid := make([]bool, n)
	for i := range n {
		ia, ib := at(i, len(a)), at(i, len(b))
		if !av[ia] || !bv[ib] {
			continue
		}
		out[i], valid[i] = fn(a[ia], b[ib])
	}
	return out, valid
}

// unaryKernel maps fn over the present values.
func unaryKernel[T, U Number](vals []T, valid []bool, fn func(T) U) []U {
	out := make([]U, len(vals))
	for i, v := range vals {
		if valid[i] {
			out[i] = fn(v)
		}
	}
	return out
}

func integerOp[T constraints.Integer](op binaryOp) func(x, y T) (T, bool) {
	switch op {
	case opAdd:
		return func(x, y T) (T, bool) { return x + y, true }
	case opSub:
		return func(x, y T) (T, bool) { return x - y, true }
	case opMul:
		return func(x, y T) (T, bool) { return x * y, true }
	default:
		return func(x, y T) (T, bool) {
			if y == 0 {
				return 0, false
			}
			return x % y, true
		}
	}
}

func floatOp(op binaryOp) func(x, y float64) (float64, bool) {
	switch op {
	case opAdd:
		return func(x, y float64) (float64, bool) { return x + y, true }
	case opSub:
		return func(x, y float64) (float64, bool) { return x - y, true }
	case opMul:
		return func(x, y float64) (float64, bool) { return x * y, true }
	case opDiv:
		return func(x, y float64) (float64, bool) { return x / y, true }
	default:
		return func(x, y float64) (float64, bool) { return math.Mod(x, y), true }
	}
}

// present collects the non-null values.
func present[T Number](vals []T, valid []bool) []T {
	out := make([]T, 0, len(vals))
	for i, v := range vals {
		if valid[i] {
			out = append(out, v)
		}
	}
	return out
}

func allValid(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}
