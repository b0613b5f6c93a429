package groupby

import (
	"github.com/arrowpipe/flowcore"
	"github.com/arrowpipe/flowcore/aggregate"
	"github.com/arrowpipe/flowcore/trigger"
)

// Builder assembles a Config fluently, mirroring this repository's other
// builder-style constructors. Start one with NewBuilder, which sets the
// required Source.
type Builder struct {
	cfg Config
}

// NewBuilder starts a Builder reading from source.
func NewBuilder(source flowcore.Node) *Builder {
	return &Builder{cfg: Config{Source: source}}
}

// Key appends fields to the group key, in order.
func (b *Builder) Key(fields ...string) *Builder {
	b.cfg.KeyFields = append(b.cfg.KeyFields, fields...)
	return b
}

// Aggregate adds one aggregate over field, named outputName in the result.
func (b *Builder) Aggregate(field string, agg aggregate.Aggregate, outputName string) *Builder {
	b.cfg.Aggregates = append(b.cfg.Aggregates, AggregateSpec{
		Field:      field,
		Aggregate:  agg,
		OutputName: outputName,
	})
	return b
}

// Trigger overrides the default CountingTrigger.
func (b *Builder) Trigger(t trigger.Trigger) *Builder {
	b.cfg.Trigger = t
	return b
}

// Build validates the accumulated configuration and returns a GroupBy node.
func (b *Builder) Build() (*GroupBy, error) {
	return New(b.cfg)
}
