// Package key implements the scalar model and group-key encoding shared by
// the aggregate and groupby packages: converting a typed column cell into a
// comparable, hashable value, and converting a row of key columns into a
// lookup key for keyed state.
package key

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arrowpipe/flowcore"
)

// Kind tags the variant held by a Scalar.
type Kind uint8

const (
	Null Kind = iota
	Uint8
	Uint16
	Uint32
	Uint64
	Int8
	Int16
	Int32
	Int64
	String
	Bool
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case String:
		return "string"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// Scalar is a tagged value covering every supported column type, plus null.
// Only one of the numeric/string/bool fields is meaningful, selected by
// Kind; Scalar is a plain comparable struct so it can be used directly as a
// Go map key or compared with ==.
type Scalar struct {
	Kind Kind
	I    int64  // Int8/Int16/Int32/Int64, and Bool (0/1)
	U    uint64 // Uint8/Uint16/Uint32/Uint64
	S    string // String
}

// IsNull reports whether the scalar is the null variant.
func (s Scalar) IsNull() bool { return s.Kind == Null }

// AsInt64 returns s.I, asserting s.Kind == Int64. It exists so accumulators
// can read their expected type without repeating the Kind check everywhere.
func (s Scalar) AsInt64() (int64, bool) {
	if s.Kind != Int64 {
		return 0, false
	}
	return s.I, true
}

// AsString returns s.S, asserting s.Kind == String.
func (s Scalar) AsString() (string, bool) {
	if s.Kind != String {
		return "", false
	}
	return s.S, true
}

// DataTypeKind maps an Arrow logical type to the Kind that represents its
// cell values, failing with a TypeError for any type outside the supported
// set.
func DataTypeKind(t arrow.DataType) (Kind, error) {
	switch t.ID() {
	case arrow.UINT8:
		return Uint8, nil
	case arrow.UINT16:
		return Uint16, nil
	case arrow.UINT32:
		return Uint32, nil
	case arrow.UINT64:
		return Uint64, nil
	case arrow.INT8:
		return Int8, nil
	case arrow.INT16:
		return Int16, nil
	case arrow.INT32:
		return Int32, nil
	case arrow.INT64:
		return Int64, nil
	case arrow.STRING:
		return String, nil
	case arrow.BOOL:
		return Bool, nil
	default:
		return Null, flowcore.NewTypeError("unsupported column type %s", t)
	}
}

// At reads the value at row from col and returns it as a Scalar, returning
// the Null scalar if the cell is null. Returns a TypeError if col's type is
// outside the closed type set.
func At(col arrow.Array, row int) (Scalar, error) {
	if col.IsNull(row) {
		return Scalar{Kind: Null}, nil
	}
	switch a := col.(type) {
	case *array.Uint8:
		return Scalar{Kind: Uint8, U: uint64(a.Value(row))}, nil
	case *array.Uint16:
		return Scalar{Kind: Uint16, U: uint64(a.Value(row))}, nil
	case *array.Uint32:
		return Scalar{Kind: Uint32, U: uint64(a.Value(row))}, nil
	case *array.Uint64:
		return Scalar{Kind: Uint64, U: a.Value(row)}, nil
	case *array.Int8:
		return Scalar{Kind: Int8, I: int64(a.Value(row))}, nil
	case *array.Int16:
		return Scalar{Kind: Int16, I: int64(a.Value(row))}, nil
	case *array.Int32:
		return Scalar{Kind: Int32, I: int64(a.Value(row))}, nil
	case *array.Int64:
		return Scalar{Kind: Int64, I: a.Value(row)}, nil
	case *array.String:
		return Scalar{Kind: String, S: a.Value(row)}, nil
	case *array.Boolean:
		if a.Value(row) {
			return Scalar{Kind: Bool, I: 1}, nil
		}
		return Scalar{Kind: Bool, I: 0}, nil
	default:
		return Scalar{}, flowcore.NewTypeError("unsupported column type %s", col.DataType())
	}
}

// String renders s for diagnostics and test failure messages.
func (s Scalar) String() string {
	switch s.Kind {
	case Null:
		return "null"
	case Uint8, Uint16, Uint32, Uint64:
		return fmt.Sprintf("%d", s.U)
	case Int8, Int16, Int32, Int64:
		return fmt.Sprintf("%d", s.I)
	case Bool:
		return fmt.Sprintf("%t", s.I != 0)
	case String:
		return s.S
	default:
		return "?"
	}
}
