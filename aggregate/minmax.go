package aggregate

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arrowpipe/flowcore"
	"github.com/arrowpipe/flowcore/key"
)

// Min and Max require multiset bookkeeping under retraction: removing the
// current extreme must not simply drop it, since an equal or lesser/greater
// duplicate may still be live. Both accumulators keep a count per distinct
// value seen so far and recompute the extreme from that multiset whenever
// the current extreme's count reaches zero.

// Min aggregates the minimum of an Int64 or Utf8 column.
type Min struct{}

func (Min) OutputType(inputType arrow.DataType) (arrow.DataType, error) {
	return minMaxOutputType(inputType)
}

func (Min) NewAccumulator() Accumulator {
	return &extremeAccumulator{less: less}
}

// Max aggregates the maximum of an Int64 or Utf8 column.
type Max struct{}

func (Max) OutputType(inputType arrow.DataType) (arrow.DataType, error) {
	return minMaxOutputType(inputType)
}

func (Max) NewAccumulator() Accumulator {
	return &extremeAccumulator{less: greater}
}

func minMaxOutputType(inputType arrow.DataType) (arrow.DataType, error) {
	switch inputType.ID() {
	case arrow.INT64:
		return arrow.PrimitiveTypes.Int64, nil
	case arrow.STRING:
		return arrow.BinaryTypes.String, nil
	default:
		return nil, flowcore.NewTypeError("min/max: unsupported input type %s, expected int64 or utf8", inputType)
	}
}

// extremeAccumulator is shared by Min (less=less) and Max (less=greater):
// less(a, b) reports whether a should replace b as the running extreme,
// i.e. it is the comparator oriented toward the aggregate's preferred
// direction.
type extremeAccumulator struct {
	counts  map[key.Scalar]int64
	current key.Scalar
	hasCur  bool
	less    func(a, b key.Scalar) bool
	live    int64
}

func (a *extremeAccumulator) Add(value key.Scalar, isRetraction bool) bool {
	if value.IsNull() {
		return a.live != 0
	}
	if a.counts == nil {
		a.counts = make(map[key.Scalar]int64)
	}
	if isRetraction {
		a.live--
		a.counts[value]--
		if a.counts[value] <= 0 {
			delete(a.counts, value)
		}
		if a.hasCur && a.current == value && a.counts[value] <= 0 {
			a.recompute()
		}
	} else {
		a.live++
		a.counts[value]++
		if !a.hasCur || a.less(value, a.current) {
			a.current = value
			a.hasCur = true
		}
	}
	return a.live != 0
}

func (a *extremeAccumulator) recompute() {
	a.hasCur = false
	for v := range a.counts {
		if !a.hasCur || a.less(v, a.current) {
			a.current = v
			a.hasCur = true
		}
	}
}

func (a *extremeAccumulator) Trigger() key.Scalar {
	if !a.hasCur {
		return key.Scalar{Kind: key.Null}
	}
	return a.current
}

func less(a, b key.Scalar) bool {
	return compare(a, b) < 0
}

func greater(a, b key.Scalar) bool {
	return compare(a, b) > 0
}

// compare orders two Scalars of the same Kind; it is only ever called on
// values drawn from the same accumulator, which only ever sees one Kind
// (the aggregate's declared input type) in well-formed use.
func compare(a, b key.Scalar) int {
	switch a.Kind {
	case key.String:
		switch {
		case a.S < b.S:
			return -1
		case a.S > b.S:
			return 1
		default:
			return 0
		}
	default:
		switch {
		case a.I < b.I:
			return -1
		case a.I > b.I:
			return 1
		default:
			return 0
		}
	}
}
