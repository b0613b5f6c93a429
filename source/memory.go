package source

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arrowpipe/flowcore"
)

// InMemory is a flowcore.Node that replays a fixed list of batches, adapted
// from this core's static-table-plus-scan-function pattern for tests and
// demos that don't need a real file source. Batches must already carry a
// trailing retraction column; InMemory does not add one, so callers that
// want to simulate retractions can set it per row.
type InMemory struct {
	schema  *arrow.Schema
	batches []arrow.RecordBatch
}

// NewInMemory builds an InMemory source with the given schema (already
// carrying a trailing retraction field) and batches.
func NewInMemory(schema *arrow.Schema, batches []arrow.RecordBatch) *InMemory {
	return &InMemory{schema: schema, batches: batches}
}

func (s *InMemory) Schema() (*arrow.Schema, error) {
	return s.schema, nil
}

// Run replays each batch in order, checking ctx.Context between batches,
// then sends EndOfStream.
func (s *InMemory) Run(ctx *flowcore.ExecutionContext, produce flowcore.ProduceFunc, metaSend flowcore.MetaSendFunc) error {
	for _, batch := range s.batches {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := flowcore.ValidateBatch(s.schema, batch); err != nil {
			return err
		}
		if err := produce(&flowcore.ProduceContext{}, batch); err != nil {
			return err
		}
	}
	return metaSend(&flowcore.ProduceContext{}, flowcore.EndOfStream)
}
