// Package dtype defines the value domain of the engine: data type tags,
// their Arrow physical types, inference from untyped input, promotion of
// two types into a common one and single-value casting.
package dtype

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Kind is the tag of a DataType.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindFloat32
	KindFloat64
	KindUtf8
	KindDate
	KindDatetime
	KindCategorical
	KindList
)

var kindNames = [...]string{
	KindUnknown:     "Unknown",
	KindBool:        "Bool",
	KindInt8:        "Int8",
	KindInt16:       "Int16",
	KindInt32:       "Int32",
	KindInt64:       "Int64",
	KindUInt8:       "UInt8",
	KindUInt16:      "UInt16",
	KindUInt32:      "UInt32",
	KindUInt64:      "UInt64",
	KindFloat32:     "Float32",
	KindFloat64:     "Float64",
	KindUtf8:        "Utf8",
	KindDate:        "Date",
	KindDatetime:    "Datetime",
	KindCategorical: "Categorical",
	KindList:        "List",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// TimeUnit is the resolution of a Datetime.
type TimeUnit uint8

const (
	Milliseconds TimeUnit = iota
	Microseconds
)

func (u TimeUnit) String() string {
	if u == Microseconds {
		return "us"
	}
	return "ms"
}

// DataType describes the logical type of a Series. Unit is only meaningful
// for Datetime and Inner only for List.
type DataType struct {
	Kind  Kind
	Unit  TimeUnit
	Inner *DataType
}

// Predefined data types.
var (
	Unknown     = DataType{Kind: KindUnknown}
	Bool        = DataType{Kind: KindBool}
	Int8        = DataType{Kind: KindInt8}
	Int16       = DataType{Kind: KindInt16}
	Int32       = DataType{Kind: KindInt32}
	Int64       = DataType{Kind: KindInt64}
	UInt8       = DataType{Kind: KindUInt8}
	UInt16      = DataType{Kind: KindUInt16}
	UInt32      = DataType{Kind: KindUInt32}
	UInt64      = DataType{Kind: KindUInt64}
	Float32     = DataType{Kind: KindFloat32}
	Float64     = DataType{Kind: KindFloat64}
	Utf8        = DataType{Kind: KindUtf8}
	Date        = DataType{Kind: KindDate}
	Datetime    = DataType{Kind: KindDatetime, Unit: Milliseconds}
	DatetimeUS  = DataType{Kind: KindDatetime, Unit: Microseconds}
	Categorical = DataType{Kind: KindCategorical}
)

// List returns the List type with the given element type.
func List(inner DataType) DataType {
	return DataType{Kind: KindList, Inner: &inner}
}

// Elem returns the element type of a List, or Unknown.
func (d DataType) Elem() DataType {
	if d.Kind != KindList || d.Inner == nil {
		return Unknown
	}
	return *d.Inner
}

// Equal reports whether both types are identical, including list element
// types and datetime units.
func (d DataType) Equal(o DataType) bool {
	if d.Kind != o.Kind {
		return false
	}
	switch d.Kind {
	case KindDatetime:
		return d.Unit == o.Unit
	case KindList:
		return d.Elem().Equal(o.Elem())
	default:
		return true
	}
}

// Name returns the bare type tag, e.g. "List" or "Datetime".
func (d DataType) Name() string {
	return d.Kind.String()
}

// String returns the full type tag, e.g. "List(Float64)" or "Datetime(ms)".
func (d DataType) String() string {
	switch d.Kind {
	case KindDatetime:
		return fmt.Sprintf("Datetime(%s)", d.Unit)
	case KindList:
		return fmt.Sprintf("List(%s)", d.Elem())
	default:
		return d.Kind.String()
	}
}

// Parse parses a type tag produced by Name or String.
func Parse(s string) (DataType, error) {
	s = strings.TrimSpace(s)
	if inner, ok := strings.CutPrefix(s, "List("); ok && strings.HasSuffix(inner, ")") {
		elem, err := Parse(strings.TrimSuffix(inner, ")"))
		if err != nil {
			return Unknown, err
		}
		return List(elem), nil
	}
	switch s {
	case "Datetime", "Datetime(ms)":
		return Datetime, nil
	case "Datetime(us)":
		return DatetimeUS, nil
	case "List":
		return List(Float64), nil
	}
	for k, name := range kindNames {
		if name == s && Kind(k) != KindUnknown {
			return DataType{Kind: Kind(k)}, nil
		}
	}
	return Unknown, fmt.Errorf("unknown data type %q", s)
}

// IsNumeric reports whether values are integers or floats.
func (d DataType) IsNumeric() bool {
	return d.IsInteger() || d.IsFloat()
}

// IsInteger reports whether values are signed or unsigned integers.
func (d DataType) IsInteger() bool {
	return d.IsSigned() || d.IsUnsigned()
}

// IsSigned reports whether values are signed integers.
func (d DataType) IsSigned() bool {
	return d.Kind >= KindInt8 && d.Kind <= KindInt64
}

// IsUnsigned reports whether values are unsigned integers.
func (d DataType) IsUnsigned() bool {
	return d.Kind >= KindUInt8 && d.Kind <= KindUInt64
}

// IsFloat reports whether values are floating point.
func (d DataType) IsFloat() bool {
	return d.Kind == KindFloat32 || d.Kind == KindFloat64
}

// IsTemporal reports whether values are dates or datetimes.
func (d DataType) IsTemporal() bool {
	return d.Kind == KindDate || d.Kind == KindDatetime
}

// IsNested reports whether values are lists.
func (d DataType) IsNested() bool {
	return d.Kind == KindList
}

// BitWidth returns the width of a fixed-width numeric type, or 0.
func (d DataType) BitWidth() int {
	switch d.Kind {
	case KindInt8, KindUInt8:
		return 8
	case KindInt16, KindUInt16:
		return 16
	case KindInt32, KindUInt32, KindFloat32:
		return 32
	case KindInt64, KindUInt64, KindFloat64:
		return 64
	default:
		return 0
	}
}

// ToArrow returns the Arrow physical type backing values of this type.
func (d DataType) ToArrow() arrow.DataType {
	switch d.Kind {
	case KindBool:
		return arrow.FixedWidthTypes.Boolean
	case KindInt8:
		return arrow.PrimitiveTypes.Int8
	case KindInt16:
		return arrow.PrimitiveTypes.Int16
	case KindInt32:
		return arrow.PrimitiveTypes.Int32
	case KindInt64:
		return arrow.PrimitiveTypes.Int64
	case KindUInt8:
		return arrow.PrimitiveTypes.Uint8
	case KindUInt16:
		return arrow.PrimitiveTypes.Uint16
	case KindUInt32:
		return arrow.PrimitiveTypes.Uint32
	case KindUInt64:
		return arrow.PrimitiveTypes.Uint64
	case KindFloat32:
		return arrow.PrimitiveTypes.Float32
	case KindFloat64:
		return arrow.PrimitiveTypes.Float64
	case KindUtf8:
		return arrow.BinaryTypes.String
	case KindDate:
		return arrow.FixedWidthTypes.Date32
	case KindDatetime:
		if d.Unit == Microseconds {
			return arrow.FixedWidthTypes.Timestamp_us
		}
		return arrow.FixedWidthTypes.Timestamp_ms
	case KindCategorical:
		return &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Uint32, ValueType: arrow.BinaryTypes.String}
	case KindList:
		return arrow.ListOf(d.Elem().ToArrow())
	default:
		return arrow.Null
	}
}

// FromArrow maps an Arrow type onto the engine's type domain.
func FromArrow(t arrow.DataType) (DataType, error) {
	switch t.ID() {
	case arrow.BOOL:
		return Bool, nil
	case arrow.INT8:
		return Int8, nil
	case arrow.INT16:
		return Int16, nil
	case arrow.INT32:
		return Int32, nil
	case arrow.INT64:
		return Int64, nil
	case arrow.UINT8:
		return UInt8, nil
	case arrow.UINT16:
		return UInt16, nil
	case arrow.UINT32:
		return UInt32, nil
	case arrow.UINT64:
		return UInt64, nil
	case arrow.FLOAT32:
		return Float32, nil
	case arrow.FLOAT64:
		return Float64, nil
	case arrow.STRING, arrow.LARGE_STRING:
		return Utf8, nil
	case arrow.DATE32:
		return Date, nil
	case arrow.TIMESTAMP:
		if t.(*arrow.TimestampType).Unit == arrow.Microsecond {
			return DatetimeUS, nil
		}
		return Datetime, nil
	case arrow.DICTIONARY:
		return Categorical, nil
	case arrow.LIST:
		inner, err := FromArrow(t.(*arrow.ListType).Elem())
		if err != nil {
			return Unknown, err
		}
		return List(inner), nil
	default:
		return Unknown, fmt.Errorf("unsupported arrow type %s", t)
	}
}
