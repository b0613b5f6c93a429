package key

import (
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arrowpipe/flowcore"
)

// GroupKey is an ordered sequence of scalars identifying an aggregation
// bucket, restricted to the hashable/orderable subset of Scalar: integers
// and UTF-8 strings. Floating point is explicitly excluded.
type GroupKey struct {
	Components []Scalar
}

// Len returns the number of key components.
func (k GroupKey) Len() int { return len(k.Components) }

// Clone returns a GroupKey holding an independent copy of Components, safe
// to retain in a map after the caller's working buffer is reused.
func (k GroupKey) Clone() GroupKey {
	out := make([]Scalar, len(k.Components))
	copy(out, k.Components)
	return GroupKey{Components: out}
}

// Encode returns a deterministic string representation of k suitable for use
// as a Go map key. Two keys are equal iff their Encode results are equal.
// A plain lexicographic sort over this encoding gives callers a stable,
// deterministic iteration order without needing an ordered map type.
func (k GroupKey) Encode() string {
	var b strings.Builder
	for i, c := range k.Components {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteByte(byte(c.Kind))
		b.WriteByte(':')
		switch c.Kind {
		case Uint8, Uint16, Uint32, Uint64:
			b.WriteString(strconv.FormatUint(c.U, 10))
		case Int8, Int16, Int32, Int64:
			b.WriteString(strconv.FormatInt(c.I, 10))
		case String:
			b.WriteString(strconv.Quote(c.S))
		default:
			b.WriteString("?")
		}
	}
	return b.String()
}

// keyableKind reports whether kind is allowed as a group-key component:
// integers and strings, but not bool, null, or (absent from Kind entirely)
// floating point.
func keyableKind(kind Kind) bool {
	switch kind {
	case Uint8, Uint16, Uint32, Uint64, Int8, Int16, Int32, Int64, String:
		return true
	default:
		return false
	}
}

// BuildKey reads the value at row from each of columns and writes it into
// buf, which must already have length len(columns); this lets callers reuse
// one buffer across rows to avoid a per-row allocation. It fails with a
// TypeError if any column is floating point or otherwise outside the
// keyable subset, and with a TypeError if any key value is null (null keys
// are unsupported).
func BuildKey(columns []arrow.Array, row int, buf []Scalar) error {
	if len(buf) != len(columns) {
		return flowcore.NewInvariantError("key buffer has length %d, expected %d", len(buf), len(columns))
	}
	for i, col := range columns {
		if col.DataType().ID() == arrow.FLOAT32 || col.DataType().ID() == arrow.FLOAT64 {
			return flowcore.NewTypeError("column %q: floating-point key columns are unsupported", colName(col))
		}
		v, err := At(col, row)
		if err != nil {
			return err
		}
		if v.IsNull() {
			return flowcore.NewTypeError("column %d: null group keys are unsupported", i)
		}
		if !keyableKind(v.Kind) {
			return flowcore.NewTypeError("column %d: type %s is not a supported key type", i, v.Kind)
		}
		buf[i] = v
	}
	return nil
}

// colName best-efforts a human-readable name for a column for error
// messages; arrow.Array carries no name of its own, so this just reports
// its data type.
func colName(col arrow.Array) string {
	return col.DataType().Name()
}
