// Package pipeline provides a fluent Builder for assembling Nodes from
// source through transform through groupby through sink, mirrored on this
// core's other builder-style constructors.
package pipeline

import (
	"github.com/arrowpipe/flowcore"
	"github.com/arrowpipe/flowcore/aggregate"
	"github.com/arrowpipe/flowcore/groupby"
	"github.com/arrowpipe/flowcore/sink"
	"github.com/arrowpipe/flowcore/transform"
)

// Builder chains operators onto a source node. Each method returns the
// Builder so calls compose; Build returns the resulting Node, or the first
// error recorded by an earlier step.
//
// Example:
//
//	n, err := pipeline.From(src).
//	    Filter("active").
//	    GroupBy([]string{"region"}, groupby.AggregateSpec{
//	        Field: "amount", Aggregate: aggregate.Sum{}, OutputName: "total",
//	    }).
//	    Build()
type Builder struct {
	node flowcore.Node
	err  error
}

// From starts a Builder reading from source.
func From(source flowcore.Node) *Builder {
	return &Builder{node: source}
}

// Project narrows the pipeline to fields, in order. Include "retraction" in
// fields if downstream stages need the retraction column to survive.
func (b *Builder) Project(fields ...string) *Builder {
	if b.err != nil {
		return b
	}
	b.node = transform.NewProjection(b.node, fields)
	return b
}

// Filter keeps only rows where predicateField is true.
func (b *Builder) Filter(predicateField string) *Builder {
	if b.err != nil {
		return b
	}
	b.node = transform.NewFilter(b.node, predicateField)
	return b
}

// GroupBy applies a streaming group-by/aggregate stage over keyFields with
// the given aggregates, using the default CountingTrigger. Use
// groupby.Builder directly for a custom trigger.
func (b *Builder) GroupBy(keyFields []string, aggregates ...groupby.AggregateSpec) *Builder {
	if b.err != nil {
		return b
	}
	g, err := groupby.New(groupby.Config{
		Source:     b.node,
		KeyFields:  keyFields,
		Aggregates: aggregates,
	})
	if err != nil {
		b.err = err
		return b
	}
	b.node = g
	return b
}

// Build returns the assembled pipeline, or the first error any step
// recorded.
func (b *Builder) Build() (flowcore.Node, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.node, nil
}

// AggSpec is a convenience constructor for groupby.AggregateSpec, so callers
// don't need to import both groupby and aggregate just to build a literal.
func AggSpec(field string, agg aggregate.Aggregate, outputName string) groupby.AggregateSpec {
	return groupby.AggregateSpec{Field: field, Aggregate: agg, OutputName: outputName}
}

// MaterializeBuilder wraps a built Node in a sink.Materialize, keyed by the
// same fields the pipeline grouped by.
func MaterializeBuilder(node flowcore.Node, keyFields []string) *sink.Materialize {
	return sink.NewMaterialize(node, keyFields)
}
