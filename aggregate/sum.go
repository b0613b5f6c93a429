package aggregate

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arrowpipe/flowcore"
	"github.com/arrowpipe/flowcore/key"
)

// Sum aggregates a signed Int64 column, maintaining a running sum and a
// running row count so it can tell live groups from exhausted ones.
type Sum struct{}

func (Sum) OutputType(inputType arrow.DataType) (arrow.DataType, error) {
	if inputType.ID() != arrow.INT64 {
		return nil, flowcore.NewTypeError("sum: unsupported input type %s, expected int64", inputType)
	}
	return arrow.PrimitiveTypes.Int64, nil
}

func (Sum) NewAccumulator() Accumulator {
	return &sumAccumulator{}
}

type sumAccumulator struct {
	sum   int64
	count int64
}

func (a *sumAccumulator) Add(value key.Scalar, isRetraction bool) bool {
	v, ok := value.AsInt64()
	if !ok {
		// The groupby operator only ever calls Add with the type validated
		// by OutputType against the schema, so this indicates a programming
		// bug rather than bad input; treat the value as absent.
		v = 0
	}
	if isRetraction {
		a.count--
		a.sum -= v
	} else {
		a.count++
		a.sum += v
	}
	return a.count != 0
}

func (a *sumAccumulator) Trigger() key.Scalar {
	return key.Scalar{Kind: key.Int64, I: a.sum}
}
