package aggregate

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arrowpipe/flowcore"
	"github.com/arrowpipe/flowcore/key"
)

// Count aggregates any input type, counting non-null contributing rows.
// Unlike Sum, Count accepts every column type in the closed type set; its
// liveness is simply "count != 0".
type Count struct{}

func (Count) OutputType(inputType arrow.DataType) (arrow.DataType, error) {
	if _, err := key.DataTypeKind(inputType); err != nil {
		return nil, flowcore.NewTypeError("count: unsupported input type %s", inputType)
	}
	return arrow.PrimitiveTypes.Int64, nil
}

func (Count) NewAccumulator() Accumulator {
	return &countAccumulator{}
}

type countAccumulator struct {
	count int64
}

func (a *countAccumulator) Add(value key.Scalar, isRetraction bool) bool {
	if value.IsNull() {
		return a.count != 0
	}
	if isRetraction {
		a.count--
	} else {
		a.count++
	}
	return a.count != 0
}

func (a *countAccumulator) Trigger() key.Scalar {
	return key.Scalar{Kind: key.Int64, I: a.count}
}
