package source

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arrowpipe/flowcore"
)

func TestInMemoryReplaysBatchesInOrder(t *testing.T) {
	schema := flowcore.WithRetraction([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	})
	alloc := memory.DefaultAllocator

	newBatch := func(ids []int64) arrow.RecordBatch {
		b := array.NewRecordBuilder(alloc, schema)
		defer b.Release()
		b.Field(0).(*array.Int64Builder).AppendValues(ids, nil)
		b.Field(1).(*array.BooleanBuilder).AppendValues(make([]bool, len(ids)), nil)
		return b.NewRecordBatch()
	}

	b1 := newBatch([]int64{1, 2})
	b2 := newBatch([]int64{3})
	defer b1.Release()
	defer b2.Release()

	src := NewInMemory(schema, []arrow.RecordBatch{b1, b2})

	var seen []int64
	execCtx := flowcore.NewExecutionContext(context.Background())
	sawEOS := false
	err := src.Run(execCtx, func(_ *flowcore.ProduceContext, batch arrow.RecordBatch) error {
		ids := batch.Column(0).(*array.Int64)
		for i := 0; i < ids.Len(); i++ {
			seen = append(seen, ids.Value(i))
		}
		return nil
	}, func(_ *flowcore.ProduceContext, msg flowcore.MetadataMessage) error {
		if msg == flowcore.EndOfStream {
			sawEOS = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sawEOS {
		t.Fatal("expected EndOfStream metadata message")
	}
	want := []int64{1, 2, 3}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
}
