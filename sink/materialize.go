package sink

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arrowpipe/flowcore"
	"github.com/arrowpipe/flowcore/key"
)

// Materialize folds a retraction stream into a live snapshot keyed by
// KeyFields: a retraction row deletes the current row for its key, and a
// non-retraction row replaces it. It is the terminal consumer a GroupBy
// output is meant for, querying current state rather than watching the
// delta stream directly.
type Materialize struct {
	source    flowcore.Node
	keyFields []string
	schema    *arrow.Schema
	rows      map[string][]key.Scalar
}

// NewMaterialize builds a Materialize sink over source, keyed by keyFields.
func NewMaterialize(source flowcore.Node, keyFields []string) *Materialize {
	return &Materialize{source: source, keyFields: keyFields, rows: make(map[string][]key.Scalar)}
}

func (m *Materialize) Schema() (*arrow.Schema, error) {
	return m.source.Schema()
}

// Run consumes the entire source stream, maintaining the live snapshot as it
// goes. It produces nothing of its own; callers read state through
// Snapshot, typically after Run returns.
func (m *Materialize) Run(ctx *flowcore.ExecutionContext, produce flowcore.ProduceFunc, metaSend flowcore.MetaSendFunc) error {
	schema, err := m.source.Schema()
	if err != nil {
		return err
	}
	m.schema = schema

	keyIdx := make([]int, len(m.keyFields))
	for i, name := range m.keyFields {
		idxs := schema.FieldIndices(name)
		if len(idxs) == 0 {
			return flowcore.NewSchemaError("materialize: key field %q not found", name)
		}
		keyIdx[i] = idxs[0]
	}
	retractIdx, err := flowcore.RetractionIndex(schema)
	if err != nil {
		return err
	}

	return m.source.Run(ctx,
		func(pctx *flowcore.ProduceContext, batch arrow.RecordBatch) error {
			retractCol, ok := batch.Column(retractIdx).(*array.Boolean)
			if !ok {
				return flowcore.NewSchemaError("materialize: retraction column has type %s, expected boolean", batch.Column(retractIdx).DataType())
			}
			nrows := int(batch.NumRows())
			keyBuf := make([]key.Scalar, len(keyIdx))
			for row := 0; row < nrows; row++ {
				for i, idx := range keyIdx {
					v, err := key.At(batch.Column(idx), row)
					if err != nil {
						return err
					}
					keyBuf[i] = v
				}
				enc := key.GroupKey{Components: keyBuf}.Encode()

				if !retractCol.IsNull(row) && retractCol.Value(row) {
					delete(m.rows, enc)
					continue
				}

				full := make([]key.Scalar, schema.NumFields())
				for col := 0; col < schema.NumFields(); col++ {
					v, err := key.At(batch.Column(col), row)
					if err != nil {
						return err
					}
					full[col] = v
				}
				m.rows[enc] = full
			}
			return nil
		},
		metaSend,
	)
}

// Snapshot returns every currently live row, in no particular order. Each
// row is a slice of Scalars aligned with m.Schema()'s columns, including the
// trailing retraction column (always false in a snapshot row).
func (m *Materialize) Snapshot() [][]key.Scalar {
	out := make([][]key.Scalar, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	return out
}
