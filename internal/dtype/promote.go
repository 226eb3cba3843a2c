package dtype

import (
	dferrors "github.com/paveg/tabula/internal/errors"
)

// Promote returns the common type two operands are converted to before an
// element-wise operation. It is commutative.
func Promote(a, b DataType) (DataType, error) {
	if a.Equal(b) {
		return a, nil
	}

	switch {
	case a.Kind == KindBool && b.IsNumeric():
		return b, nil
	case b.Kind == KindBool && a.IsNumeric():
		return a, nil
	case a.IsFloat() || b.IsFloat():
		if a.IsNumeric() && b.IsNumeric() {
			if a.Kind == KindFloat32 && b.Kind == KindFloat32 {
				return Float32, nil
			}
			return Float64, nil
		}
	case a.IsInteger() && b.IsInteger():
		return promoteIntegers(a, b), nil
	case a.IsTemporal() && b.IsTemporal():
		if a.Kind == KindDatetime && b.Kind == KindDatetime {
			// finer resolution wins
			return DatetimeUS, nil
		}
		if a.Kind == KindDatetime {
			return a, nil
		}
		return b, nil
	case isText(a) && isText(b):
		return Utf8, nil
	case a.Kind == KindList && b.Kind == KindList:
		inner, err := Promote(a.Elem(), b.Elem())
		if err != nil {
			return Unknown, err
		}
		return List(inner), nil
	}

	return Unknown, dferrors.NewTypeMismatchError("Promote", "",
		"no common type for %s and %s", a, b)
}

func isText(d DataType) bool {
	return d.Kind == KindUtf8 || d.Kind == KindCategorical
}

func promoteIntegers(a, b DataType) DataType {
	if a.IsSigned() == b.IsSigned() {
		if a.BitWidth() >= b.BitWidth() {
			return a
		}
		return b
	}

	signed, unsigned := a, b
	if a.IsUnsigned() {
		signed, unsigned = b, a
	}
	if unsigned.BitWidth() < signed.BitWidth() {
		return signed
	}
	switch unsigned.BitWidth() {
	case 8:
		return Int16
	case 16:
		return Int32
	case 32:
		return Int64
	default:
		return Float64
	}
}
