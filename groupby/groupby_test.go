package groupby

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arrowpipe/flowcore"
	"github.com/arrowpipe/flowcore/aggregate"
	"github.com/arrowpipe/flowcore/key"
	"github.com/arrowpipe/flowcore/source"
	"github.com/arrowpipe/flowcore/transform"
	"github.com/arrowpipe/flowcore/trigger"
)

func sourceSchema() *arrow.Schema {
	return flowcore.WithRetraction([]arrow.Field{
		{Name: "region", Type: arrow.PrimitiveTypes.Int64},
		{Name: "amount", Type: arrow.PrimitiveTypes.Int64},
	})
}

func makeBatch(t *testing.T, schema *arrow.Schema, regions, amounts []int64, retractions []bool) arrow.RecordBatch {
	t.Helper()
	alloc := memory.DefaultAllocator
	b := array.NewRecordBuilder(alloc, schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues(regions, nil)
	b.Field(1).(*array.Int64Builder).AppendValues(amounts, nil)
	b.Field(2).(*array.BooleanBuilder).AppendValues(retractions, nil)
	return b.NewRecordBatch()
}

type row struct {
	region     int64
	total      int64
	retraction bool
}

func collectRows(t *testing.T, node flowcore.Node) []row {
	t.Helper()
	var out []row
	execCtx := flowcore.NewExecutionContext(context.Background())
	err := node.Run(execCtx, func(_ *flowcore.ProduceContext, batch arrow.RecordBatch) error {
		schema, err := node.Schema()
		if err != nil {
			return err
		}
		retractIdx, err := flowcore.RetractionIndex(schema)
		if err != nil {
			return err
		}
		for r := 0; r < int(batch.NumRows()); r++ {
			regionV, err := key.At(batch.Column(0), r)
			if err != nil {
				return err
			}
			totalV, err := key.At(batch.Column(1), r)
			if err != nil {
				return err
			}
			retractV, err := key.At(batch.Column(retractIdx), r)
			if err != nil {
				return err
			}
			out = append(out, row{region: regionV.I, total: totalV.I, retraction: retractV.I != 0})
		}
		return nil
	}, flowcore.NoopMetaSend)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out
}

func sumSpec() AggregateSpec {
	return AggregateSpec{Field: "amount", Aggregate: aggregate.Sum{}, OutputName: "total"}
}

// Single key, single batch: every row feeds the same group and the trigger
// fires once the batch is fully ingested.
func TestGroupBySingleKeySingleBatch(t *testing.T) {
	schema := sourceSchema()
	batch := makeBatch(t, schema, []int64{1, 1, 1}, []int64{10, 20, 5}, []bool{false, false, false})
	defer batch.Release()

	src := source.NewInMemory(schema, []arrow.RecordBatch{batch})
	g, err := New(Config{
		Source:     src,
		KeyFields:  []string{"region"},
		Aggregates: []AggregateSpec{sumSpec()},
		Trigger:    trigger.NewCountingTrigger(3),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rows := collectRows(t, g)
	if len(rows) != 1 {
		t.Fatalf("rows = %v, want 1 replacement row", rows)
	}
	if rows[0].region != 1 || rows[0].total != 35 || rows[0].retraction {
		t.Fatalf("rows[0] = %+v, want {region:1 total:35 retraction:false}", rows[0])
	}
}

// A later trigger firing for an already-emitted key produces a retraction of
// the old value immediately followed by the new one.
func TestGroupByRetractionThenReEmission(t *testing.T) {
	schema := sourceSchema()
	batch1 := makeBatch(t, schema, []int64{1}, []int64{10}, []bool{false})
	batch2 := makeBatch(t, schema, []int64{1}, []int64{5}, []bool{false})
	defer batch1.Release()
	defer batch2.Release()

	src := source.NewInMemory(schema, []arrow.RecordBatch{batch1, batch2})
	g, err := New(Config{
		Source:     src,
		KeyFields:  []string{"region"},
		Aggregates: []AggregateSpec{sumSpec()},
		Trigger:    trigger.NewCountingTrigger(1),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rows := collectRows(t, g)
	if len(rows) != 3 {
		t.Fatalf("rows = %v, want 3 (emit 10, retract 10, emit 15)", rows)
	}
	if rows[0].total != 10 || rows[0].retraction {
		t.Fatalf("rows[0] = %+v, want {total:10 retraction:false}", rows[0])
	}
	if rows[1].total != 10 || !rows[1].retraction {
		t.Fatalf("rows[1] = %+v, want {total:10 retraction:true}", rows[1])
	}
	if rows[2].total != 15 || rows[2].retraction {
		t.Fatalf("rows[2] = %+v, want {total:15 retraction:false}", rows[2])
	}
}

// A group that goes fully dead (every contributing row retracted) emits only
// the retraction of its last value, never a stale replacement.
func TestGroupByDeadGroupEmitsOnlyRetraction(t *testing.T) {
	schema := sourceSchema()
	batch1 := makeBatch(t, schema, []int64{1}, []int64{10}, []bool{false})
	batch2 := makeBatch(t, schema, []int64{1}, []int64{10}, []bool{true})
	defer batch1.Release()
	defer batch2.Release()

	src := source.NewInMemory(schema, []arrow.RecordBatch{batch1, batch2})
	g, err := New(Config{
		Source:     src,
		KeyFields:  []string{"region"},
		Aggregates: []AggregateSpec{sumSpec()},
		Trigger:    trigger.NewCountingTrigger(1),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rows := collectRows(t, g)
	if len(rows) != 2 {
		t.Fatalf("rows = %v, want 2 (emit 10, then only retract 10)", rows)
	}
	if rows[1].total != 10 || !rows[1].retraction {
		t.Fatalf("rows[1] = %+v, want {total:10 retraction:true} with no replacement following", rows[1])
	}
}

// A projection placed between source and GroupBy must be told to keep the
// retraction column explicitly for the group-by protocol downstream to see
// it.
func TestGroupByOverProjection(t *testing.T) {
	schema := sourceSchema()
	batch := makeBatch(t, schema, []int64{1, 2}, []int64{10, 20}, []bool{false, false})
	defer batch.Release()

	src := source.NewInMemory(schema, []arrow.RecordBatch{batch})
	proj := transform.NewProjection(src, []string{"region", "amount", flowcore.RetractionFieldName})

	g, err := New(Config{
		Source:     proj,
		KeyFields:  []string{"region"},
		Aggregates: []AggregateSpec{sumSpec()},
		Trigger:    trigger.NewCountingTrigger(1),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rows := collectRows(t, g)
	if len(rows) != 2 {
		t.Fatalf("rows = %v, want 2", rows)
	}
}

// A filter placed upstream removes rows before they ever reach the
// accumulators.
func TestGroupByOverFilter(t *testing.T) {
	schema := flowcore.WithRetraction([]arrow.Field{
		{Name: "region", Type: arrow.PrimitiveTypes.Int64},
		{Name: "amount", Type: arrow.PrimitiveTypes.Int64},
		{Name: "active", Type: arrow.FixedWidthTypes.Boolean},
	})
	alloc := memory.DefaultAllocator
	b := array.NewRecordBuilder(alloc, schema)
	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 1}, nil)
	b.Field(1).(*array.Int64Builder).AppendValues([]int64{10, 20}, nil)
	b.Field(2).(*array.BooleanBuilder).AppendValues([]bool{true, false}, nil)
	b.Field(3).(*array.BooleanBuilder).AppendValues([]bool{false, false}, nil)
	batch := b.NewRecordBatch()
	b.Release()
	defer batch.Release()

	src := source.NewInMemory(schema, []arrow.RecordBatch{batch})
	filtered := transform.NewFilter(src, "active")

	g, err := New(Config{
		Source:     filtered,
		KeyFields:  []string{"region"},
		Aggregates: []AggregateSpec{sumSpec()},
		Trigger:    trigger.NewCountingTrigger(1),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rows := collectRows(t, g)
	if len(rows) != 1 || rows[0].total != 10 {
		t.Fatalf("rows = %v, want a single row totalling 10 (the inactive row dropped)", rows)
	}
}

// With a trigger that hasn't reached its threshold, Run produces nothing.
func TestGroupByNothingReadyProducesNoBatch(t *testing.T) {
	schema := sourceSchema()
	batch := makeBatch(t, schema, []int64{1, 1}, []int64{10, 20}, []bool{false, false})
	defer batch.Release()

	src := source.NewInMemory(schema, []arrow.RecordBatch{batch})
	g, err := New(Config{
		Source:     src,
		KeyFields:  []string{"region"},
		Aggregates: []AggregateSpec{sumSpec()},
		Trigger:    trigger.NewCountingTrigger(100),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rows := collectRows(t, g)
	if len(rows) != 0 {
		t.Fatalf("rows = %v, want none", rows)
	}
}
