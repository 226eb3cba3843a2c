package series

// Equal reports whether s and other have the same name, length and values.
// Numeric series of different widths compare by value; other data types
// must match. With nullEqual, nulls at the same position are equal;
// without it any null makes the series unequal.
func (s *Series) Equal(other *Series, nullEqual bool) bool {
	if other == nil || s.name != other.name || s.Len() != other.Len() {
		return false
	}
	if !comparableTypes(s, other) {
		return false
	}
	if s.NullCount() != other.NullCount() || (!nullEqual && s.NullCount() > 0) {
		return false
	}
	for i := range s.Len() {
		l, r := valueAt(s.array, i), valueAt(other.array, i)
		if (l == nil) != (r == nil) {
			return false
		}
		if l != nil && Compare(l, r) != 0 {
			return false
		}
	}
	return true
}

func comparableTypes(a, b *Series) bool {
	switch {
	case a.dtype.Equal(b.dtype):
		return true
	case arithmeticOperand(a.dtype) && arithmeticOperand(b.dtype):
		return a.IsBoolean() == b.IsBoolean()
	case isText(a.dtype) && isText(b.dtype):
		return true
	default:
		return false
	}
}
