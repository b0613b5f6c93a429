// Package colbuild builds Arrow columns from key.Scalar values. It is the
// one place in this repository that turns the internal Scalar tagged union
// back into typed arrow/array builders, shared by the groupby operator's
// output-batch construction and transform.Filter's row rebuild.
package colbuild

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arrowpipe/flowcore"
	"github.com/arrowpipe/flowcore/key"
)

// NewBuilder returns a fresh array.Builder for dt, failing with a TypeError
// for any type outside this core's closed type set.
func NewBuilder(alloc memory.Allocator, dt arrow.DataType) (array.Builder, error) {
	switch dt.ID() {
	case arrow.UINT8:
		return array.NewUint8Builder(alloc), nil
	case arrow.UINT16:
		return array.NewUint16Builder(alloc), nil
	case arrow.UINT32:
		return array.NewUint32Builder(alloc), nil
	case arrow.UINT64:
		return array.NewUint64Builder(alloc), nil
	case arrow.INT8:
		return array.NewInt8Builder(alloc), nil
	case arrow.INT16:
		return array.NewInt16Builder(alloc), nil
	case arrow.INT32:
		return array.NewInt32Builder(alloc), nil
	case arrow.INT64:
		return array.NewInt64Builder(alloc), nil
	case arrow.STRING:
		return array.NewStringBuilder(alloc), nil
	case arrow.BOOL:
		return array.NewBooleanBuilder(alloc), nil
	default:
		return nil, flowcore.NewTypeError("unsupported output column type %s", dt)
	}
}

// Append appends s to b, dispatching on b's concrete type. It fails with an
// InvariantError if b's type doesn't match any Scalar variant this package
// knows how to append, which would indicate a caller built the wrong kind of
// builder for a column's declared type.
func Append(b array.Builder, s key.Scalar) error {
	if s.IsNull() {
		b.AppendNull()
		return nil
	}
	switch bb := b.(type) {
	case *array.Uint8Builder:
		bb.Append(uint8(s.U))
	case *array.Uint16Builder:
		bb.Append(uint16(s.U))
	case *array.Uint32Builder:
		bb.Append(uint32(s.U))
	case *array.Uint64Builder:
		bb.Append(s.U)
	case *array.Int8Builder:
		bb.Append(int8(s.I))
	case *array.Int16Builder:
		bb.Append(int16(s.I))
	case *array.Int32Builder:
		bb.Append(int32(s.I))
	case *array.Int64Builder:
		bb.Append(s.I)
	case *array.StringBuilder:
		bb.Append(s.S)
	case *array.BooleanBuilder:
		bb.Append(s.I != 0)
	default:
		return flowcore.NewInvariantError("unsupported builder type %T", b)
	}
	return nil
}
