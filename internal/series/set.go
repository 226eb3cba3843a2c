package series

import (
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
)

// Set replaces the elements where mask is true with value, in place.
// Clones taken before the call keep the previous values.
func (s *Series) Set(mask *Series, value any) error {
	idx, err := MaskIndices(mask, s.Len())
	if err != nil {
		return err
	}
	return s.setIndices("Set", idx, value)
}

// SetAtIdx replaces the elements at indices with value, in place.
func (s *Series) SetAtIdx(indices []int, value any) error {
	for _, i := range indices {
		if i < 0 || i >= s.Len() {
			return dferrors.NewOutOfBoundsError("SetAtIdx", i, s.Len())
		}
	}
	return s.setIndices("SetAtIdx", indices, value)
}

func (s *Series) setIndices(op string, indices []int, value any) error {
	c, err := dtype.Coerce(value, s.dtype, true)
	if err != nil {
		return dferrors.NewTypeMismatchError(op, s.name,
			"value %v does not fit dtype %s", value, s.dtype)
	}
	vals := s.Values()
	for _, i := range indices {
		vals[i] = c
	}
	arr, err := buildArray(s.dtype, vals, false, s.mem)
	if err != nil {
		return dferrors.NewInternalError(op, err)
	}
	s.replace(arr)
	return nil
}

// ZipWith takes elements from s where mask is true and from other where it
// is false or null.
func (s *Series) ZipWith(mask, other *Series) (*Series, error) {
	if !mask.IsBoolean() {
		return nil, dferrors.NewTypeMismatchError("ZipWith", mask.name,
			"mask must be Bool, got %s", mask.dtype)
	}
	if mask.Len() != s.Len() {
		return nil, dferrors.NewShapeError("ZipWith", s.Len(), mask.Len())
	}
	if other.Len() != s.Len() {
		return nil, dferrors.NewShapeError("ZipWith", s.Len(), other.Len())
	}
	dt, err := dtype.Promote(s.dtype, other.dtype)
	if err != nil {
		return nil, err
	}

	vals := make([]any, s.Len())
	for i := range vals {
		if m, ok := valueAt(mask.array, i).(bool); ok && m {
			vals[i] = valueAt(s.array, i)
		} else {
			vals[i] = valueAt(other.array, i)
		}
	}
	arr, err := buildArray(dt, vals, false, s.mem)
	if err != nil {
		return nil, dferrors.NewInternalError("ZipWith", err)
	}
	return s.derive(arr), nil
}
