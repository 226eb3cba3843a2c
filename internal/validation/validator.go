// Package validation checks the arguments of DataFrame operations before any
// data is read or written. Each check is a small value with a Validate
// method, so an operation can assemble its checks and run them in one go.
package validation

import (
	"fmt"

	"github.com/paveg/tabula/internal/errors"
)

// Validator is a deferred argument check.
type Validator interface {
	Validate() error
}

// ColumnProvider is the view of a frame the validators need.
type ColumnProvider interface {
	HasColumn(name string) bool
	Columns() []string
	Len() int
	Width() int
}

// ColumnValidator requires every named column to exist.
type ColumnValidator struct {
	df      ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator checks columns against df on behalf of op.
func NewColumnValidator(df ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{df: df, columns: columns, op: op}
}

// Validate reports the first missing column.
func (v *ColumnValidator) Validate() error {
	for _, name := range v.columns {
		if !v.df.HasColumn(name) {
			return errors.NewColumnNotFoundError(v.op, name)
		}
	}
	return nil
}

// ColumnNamesValidator rejects duplicate column names.
type ColumnNamesValidator struct {
	names []string
	op    string
}

// NewColumnNamesValidator checks names for duplicates on behalf of op.
func NewColumnNamesValidator(op string, names ...string) *ColumnNamesValidator {
	return &ColumnNamesValidator{names: names, op: op}
}

// Validate reports the first name seen twice.
func (v *ColumnNamesValidator) Validate() error {
	seen := make(map[string]struct{}, len(v.names))
	for _, name := range v.names {
		if _, dup := seen[name]; dup {
			return errors.NewDuplicateColumnError(v.op, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// LengthValidator requires two lengths to agree. The context names the
// thing being measured in the error, e.g. "column 'b'" or "row 3".
type LengthValidator struct {
	want, got int
	op        string
	context   string
}

// NewLengthValidator compares actual against expected on behalf of op.
func NewLengthValidator(expected, actual int, op, context string) *LengthValidator {
	return &LengthValidator{want: expected, got: actual, op: op, context: context}
}

// Validate fails with a shape error when the lengths differ.
func (v *LengthValidator) Validate() error {
	if v.want == v.got {
		return nil
	}
	return errors.NewValidationError(v.op, "",
		fmt.Sprintf("%s: expected length %d, got %d", v.context, v.want, v.got))
}

// IndexValidator requires 0 <= index < length.
type IndexValidator struct {
	index, length int
	op            string
}

// NewIndexValidator checks index against a length of maxIndex.
func NewIndexValidator(index, maxIndex int, op string) *IndexValidator {
	return &IndexValidator{index: index, length: maxIndex, op: op}
}

func (v *IndexValidator) Validate() error {
	if v.index >= 0 && v.index < v.length {
		return nil
	}
	return errors.NewOutOfBoundsError(v.op, v.index, v.length)
}

// JoinKeysValidator checks that both sides of a join name the same number of
// key columns and that every key exists on its side.
type JoinKeysValidator struct {
	left, right         ColumnProvider
	leftKeys, rightKeys []string
	op                  string
}

// NewJoinKeysValidator creates a validator for join key columns.
func NewJoinKeysValidator(op string, left ColumnProvider, leftKeys []string, right ColumnProvider, rightKeys []string) *JoinKeysValidator {
	return &JoinKeysValidator{
		left:      left,
		right:     right,
		leftKeys:  leftKeys,
		rightKeys: rightKeys,
		op:        op,
	}
}

func (v *JoinKeysValidator) Validate() error {
	switch {
	case len(v.leftKeys) == 0:
		return errors.NewConfigError(v.op, "no join keys given")
	case len(v.leftKeys) != len(v.rightKeys):
		return errors.NewConfigError(v.op, "left keys (%d) and right keys (%d) differ in number",
			len(v.leftKeys), len(v.rightKeys))
	}
	return NewCompoundValidator(
		NewColumnValidator(v.left, v.op, v.leftKeys...),
		NewColumnValidator(v.right, v.op, v.rightKeys...),
	).Validate()
}

// CompoundValidator runs validators in order and stops at the first failure.
type CompoundValidator struct {
	validators []Validator
}

func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{validators: validators}
}

func (v *CompoundValidator) Validate() error {
	for _, check := range v.validators {
		if err := check.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateColumns runs a ColumnValidator.
func ValidateColumns(df ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(df, op, columns...).Validate()
}

// ValidateColumnNames runs a ColumnNamesValidator.
func ValidateColumnNames(op string, names ...string) error {
	return NewColumnNamesValidator(op, names...).Validate()
}

// ValidateLength runs a LengthValidator.
func ValidateLength(expected, actual int, op, context string) error {
	return NewLengthValidator(expected, actual, op, context).Validate()
}

// ValidateIndex runs an IndexValidator.
func ValidateIndex(index, maxIndex int, op string) error {
	return NewIndexValidator(index, maxIndex, op).Validate()
}
