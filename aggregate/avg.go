package aggregate

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arrowpipe/flowcore"
	"github.com/arrowpipe/flowcore/key"
)

// Avg aggregates the truncating integer average of an Int64 column. Floating
// point is outside the closed type set aggregates operate on, so Avg reports
// an Int64 result rather than introducing a float Scalar kind for the sake
// of one aggregate.
type Avg struct{}

func (Avg) OutputType(inputType arrow.DataType) (arrow.DataType, error) {
	if inputType.ID() != arrow.INT64 {
		return nil, flowcore.NewTypeError("avg: unsupported input type %s, expected int64", inputType)
	}
	return arrow.PrimitiveTypes.Int64, nil
}

func (Avg) NewAccumulator() Accumulator {
	return &avgAccumulator{}
}

type avgAccumulator struct {
	sum   int64
	count int64
}

func (a *avgAccumulator) Add(value key.Scalar, isRetraction bool) bool {
	v, ok := value.AsInt64()
	if !ok {
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

func (a *avgAccumulator) Trigger() key.Scalar {
	if a.count == 0 {
		return key.Scalar{Kind: key.Int64, I: 0}
	}
	return key.Scalar{Kind: key.Int64, I: a.sum / a.count}
}
