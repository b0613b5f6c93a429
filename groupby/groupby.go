// Package groupby implements the streaming, incrementally-maintained
// group-by operator: the core operator of this repository. Each batch is
// ingested into per-key accumulator state, observed by a Trigger, and any
// keys the Trigger reports ready get a retraction of their previous value
// (if any) followed by a replacement value, unless the group has gone dead,
// in which case only the retraction is emitted.
package groupby

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arrowpipe/flowcore"
	"github.com/arrowpipe/flowcore/aggregate"
	"github.com/arrowpipe/flowcore/internal/colbuild"
	"github.com/arrowpipe/flowcore/key"
	"github.com/arrowpipe/flowcore/trigger"
)

// defaultTriggerCount is the observation count CountingTrigger fires at when
// Config.Trigger is left nil.
const defaultTriggerCount = 100

// AggregateSpec names one column of the source to aggregate, the aggregate
// function to apply to it, and the name the result gets in the output
// schema.
type AggregateSpec struct {
	Field      string
	Aggregate  aggregate.Aggregate
	OutputName string
}

// Config configures a GroupBy node.
type Config struct {
	// Source is the upstream node to group. Required.
	Source flowcore.Node
	// KeyFields names the source columns forming the group key, in order.
	// Must be non-empty; floating-point key columns and null key values are
	// rejected at ingest time (see key.BuildKey).
	KeyFields []string
	// Aggregates lists the aggregates to compute per group. Must be
	// non-empty.
	Aggregates []AggregateSpec
	// Trigger decides when a group's current value is ready to emit.
	// Defaults to trigger.NewCountingTrigger(100).
	Trigger trigger.Trigger
}

// GroupBy is a streaming group-by/aggregate Node. It holds one accumulator
// set per distinct group key observed so far and emits retraction/
// replacement pairs as its Trigger decides keys are ready.
type GroupBy struct {
	cfg    Config
	schema *arrow.Schema
}

// New validates cfg and returns a GroupBy node.
func New(cfg Config) (*GroupBy, error) {
	if cfg.Source == nil {
		return nil, flowcore.NewInvariantError("groupby: Source is required")
	}
	if len(cfg.KeyFields) == 0 {
		return nil, flowcore.NewInvariantError("groupby: at least one key field is required")
	}
	if len(cfg.Aggregates) == 0 {
		return nil, flowcore.NewInvariantError("groupby: at least one aggregate is required")
	}
	for _, spec := range cfg.Aggregates {
		if spec.OutputName == "" {
			return nil, flowcore.NewInvariantError("groupby: aggregate on field %q has no OutputName", spec.Field)
		}
	}
	return &GroupBy{cfg: cfg}, nil
}

// Schema returns the key columns followed by each aggregate's output column
// followed by the trailing retraction field.
func (g *GroupBy) Schema() (*arrow.Schema, error) {
	if g.schema != nil {
		return g.schema, nil
	}
	src, err := g.cfg.Source.Schema()
	if err != nil {
		return nil, err
	}
	fields := make([]arrow.Field, 0, len(g.cfg.KeyFields)+len(g.cfg.Aggregates))
	for _, name := range g.cfg.KeyFields {
		idx, err := fieldIndex(src, name)
		if err != nil {
			return nil, err
		}
		f := src.Field(idx)
		fields = append(fields, arrow.Field{Name: f.Name, Type: f.Type})
	}
	for _, spec := range g.cfg.Aggregates {
		idx, err := fieldIndex(src, spec.Field)
		if err != nil {
			return nil, err
		}
		outType, err := spec.Aggregate.OutputType(src.Field(idx).Type)
		if err != nil {
			return nil, err
		}
		fields = append(fields, arrow.Field{Name: spec.OutputName, Type: outType})
	}
	g.schema = flowcore.WithRetraction(fields)
	return g.schema, nil
}

// groupEntry is the per-key mutable state: one Accumulator per configured
// aggregate, plus whether the group is still live (has at least one
// contributing row across all of its aggregates).
type groupEntry struct {
	k    key.GroupKey
	accs []aggregate.Accumulator
	live bool
}

func newGroupEntry(k key.GroupKey, specs []AggregateSpec) *groupEntry {
	accs := make([]aggregate.Accumulator, len(specs))
	for i, s := range specs {
		accs[i] = s.Aggregate.NewAccumulator()
	}
	return &groupEntry{k: k, accs: accs, live: true}
}

// Run drives g.cfg.Source, maintaining one groupEntry per distinct key and
// emitting retraction/replacement batches as the trigger reports keys ready.
func (g *GroupBy) Run(ctx *flowcore.ExecutionContext, produce flowcore.ProduceFunc, metaSend flowcore.MetaSendFunc) error {
	srcSchema, err := g.cfg.Source.Schema()
	if err != nil {
		return err
	}
	outSchema, err := g.Schema()
	if err != nil {
		return err
	}

	keyIdx := make([]int, len(g.cfg.KeyFields))
	for i, name := range g.cfg.KeyFields {
		idx, err := fieldIndex(srcSchema, name)
		if err != nil {
			return err
		}
		keyIdx[i] = idx
	}
	aggIdx := make([]int, len(g.cfg.Aggregates))
	for i, spec := range g.cfg.Aggregates {
		idx, err := fieldIndex(srcSchema, spec.Field)
		if err != nil {
			return err
		}
		aggIdx[i] = idx
	}
	retractIdx, err := flowcore.RetractionIndex(srcSchema)
	if err != nil {
		return err
	}

	trg := g.cfg.Trigger
	if trg == nil {
		trg = trigger.NewCountingTrigger(defaultTriggerCount)
	}

	entries := make(map[string]*groupEntry)
	lastEmitted := make(map[string][]key.Scalar)
	alloc := memory.DefaultAllocator

	return g.cfg.Source.Run(ctx,
		func(pctx *flowcore.ProduceContext, batch arrow.RecordBatch) error {
			if err := flowcore.ValidateBatch(srcSchema, batch); err != nil {
				return err
			}
			ready, err := g.ingest(batch, keyIdx, aggIdx, retractIdx, trg, entries)
			if err != nil {
				return err
			}
			if len(ready) == 0 {
				return nil
			}
			return g.emit(ctx, pctx, produce, outSchema, ready, entries, lastEmitted, alloc)
		},
		func(pctx *flowcore.ProduceContext, msg flowcore.MetadataMessage) error {
			return metaSend(pctx, msg)
		},
	)
}

// ingest applies every row of batch to its group's accumulators (step 1),
// reports the row's keys to trg (step 2), and returns the keys trg judges
// ready to emit (step 3).
func (g *GroupBy) ingest(
	batch arrow.RecordBatch,
	keyIdx, aggIdx []int,
	retractIdx int,
	trg trigger.Trigger,
	entries map[string]*groupEntry,
) ([]key.GroupKey, error) {
	nrows := int(batch.NumRows())
	keyCols := make([]arrow.Array, len(keyIdx))
	for i, idx := range keyIdx {
		keyCols[i] = batch.Column(idx)
	}
	retractCol := batch.Column(retractIdx)

	buf := make([]key.Scalar, len(keyIdx))
	rowKeys := make([]key.GroupKey, nrows)
	for row := 0; row < nrows; row++ {
		if err := key.BuildKey(keyCols, row, buf); err != nil {
			return nil, err
		}
		gk := key.GroupKey{Components: buf}.Clone()
		rowKeys[row] = gk

		isRetraction, err := boolAt(retractCol, row)
		if err != nil {
			return nil, err
		}

		enc := gk.Encode()
		entry, ok := entries[enc]
		if !ok {
			entry = newGroupEntry(gk, g.cfg.Aggregates)
			entries[enc] = entry
		}

		allLive := true
		for i := range g.cfg.Aggregates {
			v, err := key.At(batch.Column(aggIdx[i]), row)
			if err != nil {
				return nil, err
			}
			if !entry.accs[i].Add(v, isRetraction) {
				allLive = false
			}
		}
		entry.live = allLive
	}

	trg.KeysReceived(rowKeys)
	return trg.Poll(), nil
}

// emit builds and produces one batch covering every key in ready: a
// retraction row for any key with a previously emitted value (steps 4-5),
// followed by a replacement row for any key whose group is still live (step
// 6). A key whose group has gone dead gets only its retraction, and its
// entry is reclaimed.
func (g *GroupBy) emit(
	ctx *flowcore.ExecutionContext,
	pctx *flowcore.ProduceContext,
	produce flowcore.ProduceFunc,
	outSchema *arrow.Schema,
	ready []key.GroupKey,
	entries map[string]*groupEntry,
	lastEmitted map[string][]key.Scalar,
	alloc memory.Allocator,
) error {
	type row struct {
		key        []key.Scalar
		values     []key.Scalar
		retraction bool
	}
	var rows []row

	for _, k := range ready {
		if prev, ok := lastEmitted[k.Encode()]; ok {
			rows = append(rows, row{key: k.Components, values: prev, retraction: true})
		}
	}
	for _, k := range ready {
		delete(lastEmitted, k.Encode())
	}
	for _, k := range ready {
		enc := k.Encode()
		entry, ok := entries[enc]
		if !ok {
			return flowcore.NewInvariantError("groupby: no accumulator state for triggered key %s", enc)
		}
		if !entry.live {
			ctx.Log().Debug("groupby: dropping dead group", "key", enc)
			delete(entries, enc)
			continue
		}
		values := make([]key.Scalar, len(g.cfg.Aggregates))
		for i := range g.cfg.Aggregates {
			values[i] = entry.accs[i].Trigger()
		}
		lastEmitted[enc] = values
		rows = append(rows, row{key: k.Components, values: values, retraction: false})
	}

	if len(rows) == 0 {
		return nil
	}

	builders := make([]array.Builder, outSchema.NumFields())
	for i := 0; i < outSchema.NumFields(); i++ {
		b, err := colbuild.NewBuilder(alloc, outSchema.Field(i).Type)
		if err != nil {
			return err
		}
		builders[i] = b
	}
	nKeys := len(g.cfg.KeyFields)
	nAggs := len(g.cfg.Aggregates)
	for _, r := range rows {
		for i := 0; i < nKeys; i++ {
			if err := colbuild.Append(builders[i], r.key[i]); err != nil {
				return err
			}
		}
		for i := 0; i < nAggs; i++ {
			if err := colbuild.Append(builders[nKeys+i], r.values[i]); err != nil {
				return err
			}
		}
		retraction := key.Scalar{Kind: key.Bool, I: boolToInt(r.retraction)}
		if err := colbuild.Append(builders[nKeys+nAggs], retraction); err != nil {
			return err
		}
	}

	cols := make([]arrow.Array, len(builders))
	for i, b := range builders {
		cols[i] = b.NewArray()
		b.Release()
	}
	out := array.NewRecordBatch(outSchema, cols, int64(len(rows)))
	for _, c := range cols {
		c.Release()
	}
	defer out.Release()

	return produce(pctx, out)
}

func fieldIndex(schema *arrow.Schema, name string) (int, error) {
	idxs := schema.FieldIndices(name)
	if len(idxs) == 0 {
		return 0, flowcore.NewSchemaError("field %q not found in source schema", name)
	}
	return idxs[0], nil
}

func boolAt(col arrow.Array, row int) (bool, error) {
	b, ok := col.(*array.Boolean)
	if !ok {
		return false, flowcore.NewSchemaError("retraction column has type %s, expected boolean", col.DataType())
	}
	if b.IsNull(row) {
		return false, flowcore.NewInvariantError("retraction column has null at row %d", row)
	}
	return b.Value(row), nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
