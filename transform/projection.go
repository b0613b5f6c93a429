// Package transform implements the stateless row-preserving operators:
// Projection (column selection/reorder) and Filter (row selection on a
// boolean predicate column). Neither one can turn an insert into a
// retraction or vice versa; Filter always carries the retraction column
// through, and Projection carries it through only if the caller names it.
package transform

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arrowpipe/flowcore"
)

// Projection selects and reorders a subset of its source's columns. It does
// not add the retraction field on the caller's behalf: a caller that wants
// retraction rows to survive the projection must name "retraction" in
// fields like any other column.
type Projection struct {
	source flowcore.Node
	fields []string
	schema *arrow.Schema
	srcIdx []int
}

// NewProjection builds a Projection of source onto fields, in order.
func NewProjection(source flowcore.Node, fields []string) *Projection {
	return &Projection{source: source, fields: fields}
}

func (p *Projection) Schema() (*arrow.Schema, error) {
	if p.schema != nil {
		return p.schema, nil
	}
	src, err := p.source.Schema()
	if err != nil {
		return nil, err
	}
	idx := make([]int, len(p.fields))
	fields := make([]arrow.Field, len(p.fields))
	for i, name := range p.fields {
		idxs := src.FieldIndices(name)
		if len(idxs) == 0 {
			return nil, flowcore.NewSchemaError("projection: field %q not found", name)
		}
		idx[i] = idxs[0]
		fields[i] = src.Field(idxs[0])
	}
	p.srcIdx = idx
	p.schema = arrow.NewSchema(fields, nil)
	return p.schema, nil
}

// Run reads each upstream batch and produces a batch holding only the
// configured columns, in the configured order.
func (p *Projection) Run(ctx *flowcore.ExecutionContext, produce flowcore.ProduceFunc, metaSend flowcore.MetaSendFunc) error {
	outSchema, err := p.Schema()
	if err != nil {
		return err
	}

	return p.source.Run(ctx,
		func(pctx *flowcore.ProduceContext, batch arrow.RecordBatch) error {
			cols := make([]arrow.Array, len(p.srcIdx))
			for i, idx := range p.srcIdx {
				cols[i] = batch.Column(idx)
			}
			out := array.NewRecordBatch(outSchema, cols, batch.NumRows())
			defer out.Release()
			return produce(pctx, out)
		},
		metaSend,
	)
}
