package flowcore

import (
	"context"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
)

// ProduceContext carries per-call metadata for a produce invocation. It is
// currently empty but gives the contract room to grow without changing the
// ProduceFunc signature, mirroring the original pipeline's ProduceContext.
type ProduceContext struct{}

// ExecutionContext carries cross-cutting concerns for one Run call: a
// cancellable context.Context and an optional logger. Operators MUST respect
// Context.Done() where a blocking external call is involved (e.g. source
// I/O); the in-memory operators in this repository have no suspension
// points of their own and only check it between batches.
type ExecutionContext struct {
	Context context.Context
	Logger  *slog.Logger
}

// Log returns ctx.Logger, falling back to slog.Default() if ctx is nil or
// ctx.Logger is unset.
func (ctx *ExecutionContext) Log() *slog.Logger {
	if ctx == nil || ctx.Logger == nil {
		return slog.Default()
	}
	return ctx.Logger
}

// Err reports ctx.Context's cancellation error, or nil if ctx or
// ctx.Context is unset.
func (ctx *ExecutionContext) Err() error {
	if ctx == nil || ctx.Context == nil {
		return nil
	}
	return ctx.Context.Err()
}

// NewExecutionContext builds an ExecutionContext with the given
// context.Context and the default logger.
func NewExecutionContext(ctx context.Context) *ExecutionContext {
	return &ExecutionContext{Context: ctx, Logger: slog.Default()}
}

// MetadataMessage is an out-of-band control signal delivered via MetaSendFunc.
type MetadataMessage int

const (
	// EndOfStream signals that a node's upstream has been fully consumed.
	// It is delivered exactly once, at the end of a successful Run.
	EndOfStream MetadataMessage = iota
)

// ProduceFunc is invoked once per output batch. Batches passed to produce
// are conformant with the producing node's declared Schema() and are
// borrowed for the duration of the call: a callee that needs to retain data
// beyond the call must copy it. Returning an error aborts the Run that is
// driving the call.
type ProduceFunc func(ctx *ProduceContext, batch arrow.RecordBatch) error

// MetaSendFunc delivers metadata messages. It carries no row data.
type MetaSendFunc func(ctx *ProduceContext, msg MetadataMessage) error

// NoopMetaSend discards metadata messages. Callers at the root of a pipeline
// pass it to Run when they do not need metadata and rely on Run returning
// normally to signal completion; the operators in this repository forward
// the metaSend they were given to their upstream.
func NoopMetaSend(_ *ProduceContext, _ MetadataMessage) error { return nil }

// Node is the uniform push-based operator abstraction. Schema must be
// callable without consuming any input, so downstream nodes can resolve
// field indices ahead of time. Run executes the operator to completion,
// invoking produce for each output batch and metaSend for control messages,
// and returns only once its upstream reaches end-of-stream or a fatal error
// occurs.
type Node interface {
	// Schema returns the node's output schema. It may be called any number
	// of times and must return the same schema on every call within one
	// Run's lifetime.
	Schema() (*arrow.Schema, error)

	// Run drives the node to completion. Returning an error from produce
	// aborts Run with that error; Run itself returns the first error
	// encountered (its own, or one surfaced from its upstream).
	Run(ctx *ExecutionContext, produce ProduceFunc, metaSend MetaSendFunc) error
}
