// Package aggregate defines the Aggregate/Accumulator contract used by the
// groupby package, and the concrete aggregates built on it.
package aggregate

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arrowpipe/flowcore/key"
)

// Aggregate declares an aggregation function: the output type it produces
// for a given input column type, and a factory for fresh per-group state.
type Aggregate interface {
	// OutputType returns the logical type of this aggregate's result given
	// its input column's type. It may fail with a TypeError if inputType is
	// unsupported.
	OutputType(inputType arrow.DataType) (arrow.DataType, error)

	// NewAccumulator returns a fresh Accumulator for one group.
	NewAccumulator() Accumulator
}

// Accumulator is the per-group mutable state for one aggregate.
type Accumulator interface {
	// Add updates the accumulator with value. When isRetraction is true,
	// value is subtracted from the running state; when false, it is added.
	// Add returns whether the group is still live (has at least one
	// contributing row). When it returns false, the groupby operator
	// reclaims the accumulator and emits a retraction for any previously
	// emitted value instead of a replacement.
	Add(value key.Scalar, isRetraction bool) (live bool)

	// Trigger returns the current result without mutating state.
	Trigger() key.Scalar
}
