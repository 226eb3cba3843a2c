package dataframe

import "github.com/paveg/tabula/internal/config"

// Equal reports whether df and other have the same shape, the same column
// names in the same order and pairwise equal columns. nullEqual is passed
// through to the column comparison.
func (df *DataFrame) Equal(other *DataFrame, nullEqual bool) bool {
	if other == nil || df.Width() != other.Width() || df.Len() != other.Len() {
		return false
	}
	for i, name := range df.order {
		if other.order[i] != name {
			return false
		}
		if !df.columns[name].Equal(other.columns[name], nullEqual) {
			return false
		}
	}
	return true
}

// Equals is Equal with null handling taken from the global configuration.
func (df *DataFrame) Equals(other *DataFrame) bool {
	return df.Equal(other, config.GetGlobalConfig().NullEqual)
}
