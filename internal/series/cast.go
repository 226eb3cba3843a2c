package series

import (
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
)

// Cast converts the series to dt. Values that cannot be represented become
// null, or fail the cast when strict is set.
func (s *Series) Cast(dt dtype.DataType, strict bool) (*Series, error) {
	if s.dtype.Equal(dt) {
		return s.Clone(), nil
	}
	if s.dtype.IsNested() != dt.IsNested() {
		return nil, dferrors.NewTypeMismatchError("Cast", s.name,
			"cannot cast %s to %s", s.dtype, dt)
	}

	vals := s.Values()
	for i, v := range vals {
		c, err := dtype.CastValue(v, s.dtype, dt, strict)
		if err != nil {
			return nil, dferrors.NewTypeMismatchError("Cast", s.name, "%v", err)
		}
		vals[i] = c
	}
	arr, err := buildArray(dt, vals, strict, s.mem)
	if err != nil {
		return nil, dferrors.NewTypeMismatchError("Cast", s.name, "%v", err)
	}
	return s.derive(arr), nil
}

// Reinterpret reinterprets the bits of a 64-bit integer series as Int64
// when signed is set, otherwise as UInt64.
func (s *Series) Reinterpret(signed bool) (*Series, error) {
	if s.dtype.Kind != dtype.KindInt64 && s.dtype.Kind != dtype.KindUInt64 {
		return nil, dferrors.NewTypeMismatchError("Reinterpret", s.name,
			"reinterpret is only supported for 64-bit integers, got %s", s.dtype)
	}
	if signed {
		return s.Cast(dtype.Int64, true)
	}
	return s.Cast(dtype.UInt64, true)
}
