package transform

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arrowpipe/flowcore"
	"github.com/arrowpipe/flowcore/internal/colbuild"
	"github.com/arrowpipe/flowcore/key"
)

// Filter keeps rows where a named boolean column is true, dropping rows
// where it is false or null. It doesn't use arrow/compute's filter kernel;
// it rebuilds each kept row explicitly through colbuild so the exact
// null-drop/true-keep boundary rule is visible in one place rather than
// depending on a kernel's null-handling default.
type Filter struct {
	source         flowcore.Node
	predicateField string
	schema         *arrow.Schema
	predicateIdx   int
}

// NewFilter builds a Filter of source keeping rows where predicateField is
// true. predicateField must name a boolean column of source's schema (it
// may be the trailing retraction column).
func NewFilter(source flowcore.Node, predicateField string) *Filter {
	return &Filter{source: source, predicateField: predicateField}
}

// Schema returns the source's schema unchanged: Filter selects rows, not
// columns.
func (f *Filter) Schema() (*arrow.Schema, error) {
	if f.schema != nil {
		return f.schema, nil
	}
	src, err := f.source.Schema()
	if err != nil {
		return nil, err
	}
	idxs := src.FieldIndices(f.predicateField)
	if len(idxs) == 0 {
		return nil, flowcore.NewSchemaError("filter: predicate field %q not found", f.predicateField)
	}
	idx := idxs[0]
	if src.Field(idx).Type.ID() != arrow.BOOL {
		return nil, flowcore.NewSchemaError("filter: predicate field %q has type %s, expected boolean", f.predicateField, src.Field(idx).Type)
	}
	f.predicateIdx = idx
	f.schema = src
	return f.schema, nil
}

// Run reads each upstream batch, keeps the rows where the predicate column
// is true, and produces a batch of just those rows. A batch with no
// surviving rows produces nothing.
func (f *Filter) Run(ctx *flowcore.ExecutionContext, produce flowcore.ProduceFunc, metaSend flowcore.MetaSendFunc) error {
	schema, err := f.Schema()
	if err != nil {
		return err
	}
	alloc := memory.DefaultAllocator

	return f.source.Run(ctx,
		func(pctx *flowcore.ProduceContext, batch arrow.RecordBatch) error {
			pred, ok := batch.Column(f.predicateIdx).(*array.Boolean)
			if !ok {
				return flowcore.NewSchemaError("filter: predicate column has type %s, expected boolean", batch.Column(f.predicateIdx).DataType())
			}
			nrows := int(batch.NumRows())
			keep := make([]int, 0, nrows)
			for row := 0; row < nrows; row++ {
				if pred.IsNull(row) {
					continue
				}
				if pred.Value(row) {
					keep = append(keep, row)
				}
			}
			if len(keep) == 0 {
				return nil
			}

			builders := make([]array.Builder, schema.NumFields())
			for i := 0; i < schema.NumFields(); i++ {
				b, err := colbuild.NewBuilder(alloc, schema.Field(i).Type)
				if err != nil {
					return err
				}
				builders[i] = b
			}
			for _, row := range keep {
				for i := 0; i < schema.NumFields(); i++ {
					v, err := key.At(batch.Column(i), row)
					if err != nil {
						return err
					}
					if err := colbuild.Append(builders[i], v); err != nil {
						return err
					}
				}
			}

			cols := make([]arrow.Array, len(builders))
			for i, b := range builders {
				cols[i] = b.NewArray()
				b.Release()
			}
			out := array.NewRecordBatch(schema, cols, int64(len(keep)))
			for _, c := range cols {
				c.Release()
			}
			defer out.Release()
			return produce(pctx, out)
		},
		metaSend,
	)
}
