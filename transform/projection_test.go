package transform

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arrowpipe/flowcore"
	"github.com/arrowpipe/flowcore/source"
)

func fullSchema() *arrow.Schema {
	return flowcore.WithRetraction([]arrow.Field{
		{Name: "region", Type: arrow.BinaryTypes.String},
		{Name: "amount", Type: arrow.PrimitiveTypes.Int64},
		{Name: "note", Type: arrow.BinaryTypes.String},
	})
}

func TestProjectionSchemaKeepsOrder(t *testing.T) {
	src := source.NewInMemory(fullSchema(), nil)
	proj := NewProjection(src, []string{"amount", "region"})

	schema, err := proj.Schema()
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if schema.NumFields() != 2 {
		t.Fatalf("NumFields() = %d, want 2", schema.NumFields())
	}
	if schema.Field(0).Name != "amount" || schema.Field(1).Name != "region" {
		t.Fatalf("projected fields = [%s %s], want [amount region]", schema.Field(0).Name, schema.Field(1).Name)
	}
}

func TestProjectionOmitsRetractionUnlessNamed(t *testing.T) {
	src := source.NewInMemory(fullSchema(), nil)
	proj := NewProjection(src, []string{"region"})

	schema, err := proj.Schema()
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if schema.NumFields() != 1 {
		t.Fatalf("NumFields() = %d, want 1 (retraction dropped)", schema.NumFields())
	}

	projWithRetraction := NewProjection(src, []string{"region", flowcore.RetractionFieldName})
	schema2, err := projWithRetraction.Schema()
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if schema2.NumFields() != 2 || schema2.Field(1).Name != flowcore.RetractionFieldName {
		t.Fatalf("schema = %v, want [region retraction]", schema2)
	}
}

func TestProjectionUnknownFieldErrors(t *testing.T) {
	src := source.NewInMemory(fullSchema(), nil)
	proj := NewProjection(src, []string{"missing"})
	if _, err := proj.Schema(); err == nil {
		t.Fatal("Schema: expected error for unknown field")
	}
}

func TestProjectionCarriesRetractionThrough(t *testing.T) {
	schema := fullSchema()
	alloc := memory.DefaultAllocator
	b := array.NewRecordBuilder(alloc, schema)
	b.Field(0).(*array.StringBuilder).AppendValues([]string{"east", "west"}, nil)
	b.Field(1).(*array.Int64Builder).AppendValues([]int64{1, 2}, nil)
	b.Field(2).(*array.StringBuilder).AppendValues([]string{"a", "b"}, nil)
	b.Field(3).(*array.BooleanBuilder).AppendValues([]bool{true, false}, nil)
	batch := b.NewRecordBatch()
	b.Release()
	defer batch.Release()

	src := source.NewInMemory(schema, []arrow.RecordBatch{batch})
	proj := NewProjection(src, []string{"region", flowcore.RetractionFieldName})

	var retractions []bool
	execCtx := flowcore.NewExecutionContext(t.Context())
	err := proj.Run(execCtx, func(_ *flowcore.ProduceContext, out arrow.RecordBatch) error {
		retractIdx, err := flowcore.RetractionIndex(out.Schema())
		if err != nil {
			return err
		}
		col := out.Column(retractIdx).(*array.Boolean)
		for i := 0; i < col.Len(); i++ {
			retractions = append(retractions, col.Value(i))
		}
		return nil
	}, flowcore.NoopMetaSend)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(retractions) != 2 || !retractions[0] || retractions[1] {
		t.Fatalf("retractions = %v, want [true false]", retractions)
	}
}
