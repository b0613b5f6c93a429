package key

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arrowpipe/flowcore"
)

func TestBuildKeyRejectsFloat(t *testing.T) {
	alloc := memory.DefaultAllocator
	b := array.NewFloat64Builder(alloc)
	b.Append(1.5)
	arr := b.NewArray()
	b.Release()
	defer arr.Release()

	buf := make([]Scalar, 1)
	err := BuildKey([]arrow.Array{arr}, 0, buf)
	if err == nil {
		t.Fatal("BuildKey: expected error for float column")
	}
	if kind, ok := flowcore.KindOf(err); !ok || kind != flowcore.KindTypeError {
		t.Fatalf("BuildKey: expected TypeError, got %v", err)
	}
}

func TestBuildKeyRejectsNull(t *testing.T) {
	alloc := memory.DefaultAllocator
	b := array.NewInt64Builder(alloc)
	b.AppendNull()
	arr := b.NewArray()
	b.Release()
	defer arr.Release()

	buf := make([]Scalar, 1)
	if err := BuildKey([]arrow.Array{arr}, 0, buf); err == nil {
		t.Fatal("BuildKey: expected error for null key")
	}
}

func TestGroupKeyEncodeDistinguishesKindAndValue(t *testing.T) {
	a := GroupKey{Components: []Scalar{{Kind: Int64, I: 1}}}
	b := GroupKey{Components: []Scalar{{Kind: Int64, I: 2}}}
	c := GroupKey{Components: []Scalar{{Kind: Uint64, U: 1}}}

	if a.Encode() == b.Encode() {
		t.Fatal("distinct values encoded the same")
	}
	if a.Encode() == c.Encode() {
		t.Fatal("distinct kinds encoded the same")
	}
}

func TestGroupKeyEncodeStable(t *testing.T) {
	k1 := GroupKey{Components: []Scalar{{Kind: String, S: "a"}, {Kind: Int64, I: 3}}}
	k2 := k1.Clone()
	if k1.Encode() != k2.Encode() {
		t.Fatalf("Encode not stable across Clone: %q vs %q", k1.Encode(), k2.Encode())
	}
}

func TestBuildKeyMultiColumn(t *testing.T) {
	alloc := memory.DefaultAllocator
	ib := array.NewInt64Builder(alloc)
	ib.Append(7)
	iarr := ib.NewArray()
	ib.Release()
	defer iarr.Release()

	sb := array.NewStringBuilder(alloc)
	sb.Append("east")
	sarr := sb.NewArray()
	sb.Release()
	defer sarr.Release()

	buf := make([]Scalar, 2)
	if err := BuildKey([]arrow.Array{iarr, sarr}, 0, buf); err != nil {
		t.Fatalf("BuildKey: %v", err)
	}
	if buf[0].Kind != Int64 || buf[0].I != 7 {
		t.Fatalf("buf[0] = %+v", buf[0])
	}
	if buf[1].Kind != String || buf[1].S != "east" {
		t.Fatalf("buf[1] = %+v", buf[1])
	}
}
