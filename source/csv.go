// Package source provides flowcore.Node implementations that have no
// upstream of their own: reading rows from a CSV file, and replaying a
// fixed in-memory batch list for tests and demos.
package source

import (
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arrowpipe/flowcore"
)

const (
	defaultCSVChunkSize     = 8192
	defaultCSVInferenceRows = 10
)

// CSVConfig configures a CSV source.
type CSVConfig struct {
	// Path is the file to read.
	Path string
	// Schema is the column schema of the file, without a retraction field
	// (CSV's produce() output always appends one). If nil, the schema is
	// inferred from the header and the first InferenceRows data rows.
	Schema *arrow.Schema
	// Header reports whether the first row names the columns. Defaults to
	// true.
	Header *bool
	// Comma is the field delimiter. Defaults to ','.
	Comma rune
	// ChunkSize is the number of rows per emitted batch. Defaults to 8192.
	ChunkSize int64
	// InferenceRows is how many data rows schema inference reads before
	// settling on column types. Ignored if Schema is set. Defaults to 10.
	InferenceRows int
}

// CSV is a flowcore.Node that reads rows from a CSV file and emits them as
// insert-only batches (retraction always false). Every emitted batch's
// schema is cfg.Schema (or the inferred equivalent) with a trailing
// retraction field appended, per this core's node-boundary convention.
type CSV struct {
	cfg    CSVConfig
	schema *arrow.Schema
}

// NewCSV builds a CSV source with cfg's defaults filled in.
func NewCSV(cfg CSVConfig) *CSV {
	if cfg.Comma == 0 {
		cfg.Comma = ','
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = defaultCSVChunkSize
	}
	if cfg.InferenceRows == 0 {
		cfg.InferenceRows = defaultCSVInferenceRows
	}
	if cfg.Header == nil {
		header := true
		cfg.Header = &header
	}
	return &CSV{cfg: cfg}
}

func (s *CSV) readerOptions() []csv.Option {
	opts := []csv.Option{
		csv.WithComma(s.cfg.Comma),
		csv.WithHeader(*s.cfg.Header),
		csv.WithChunk(int(s.cfg.ChunkSize)),
	}
	if s.cfg.Schema == nil {
		opts = append(opts, csv.WithInferenceRows(s.cfg.InferenceRows))
	}
	return opts
}

func (s *CSV) newReader(f io.Reader, alloc memory.Allocator) *csv.Reader {
	opts := append([]csv.Option{csv.WithAllocator(alloc)}, s.readerOptions()...)
	if s.cfg.Schema != nil {
		return csv.NewReader(f, s.cfg.Schema, opts...)
	}
	return csv.NewInferringReader(f, opts...)
}

// Schema opens the file to resolve its column schema (inferring if
// necessary), then closes it; it does not consume the file for a subsequent
// Run.
func (s *CSV) Schema() (*arrow.Schema, error) {
	if s.schema != nil {
		return s.schema, nil
	}
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return nil, flowcore.NewIOError(err, "csv: opening %s", s.cfg.Path)
	}
	defer f.Close()

	r := s.newReader(f, memory.DefaultAllocator)
	defer r.Release()

	s.schema = flowcore.WithRetraction(r.Schema().Fields())
	return s.schema, nil
}

// Run reads the file in CSVConfig.ChunkSize-row batches, appends a constant
// false retraction column to each, and calls produce. It sends EndOfStream
// once the file is exhausted.
func (s *CSV) Run(ctx *flowcore.ExecutionContext, produce flowcore.ProduceFunc, metaSend flowcore.MetaSendFunc) error {
	outSchema, err := s.Schema()
	if err != nil {
		return err
	}

	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return flowcore.NewIOError(err, "csv: opening %s", s.cfg.Path)
	}
	defer f.Close()

	alloc := memory.DefaultAllocator
	r := s.newReader(f, alloc)
	defer r.Release()

	for r.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := r.RecordBatch()
		out, err := withFalseRetraction(outSchema, rec, alloc)
		if err != nil {
			return err
		}
		ctx.Log().Debug("csv: emitting batch", "path", s.cfg.Path, "rows", rec.NumRows())
		err = func() error {
			defer out.Release()
			return produce(&flowcore.ProduceContext{}, out)
		}()
		if err != nil {
			return err
		}
	}
	if err := r.Err(); err != nil {
		return flowcore.NewIOError(err, "csv: reading %s", s.cfg.Path)
	}
	return metaSend(&flowcore.ProduceContext{}, flowcore.EndOfStream)
}

// withFalseRetraction returns a new RecordBatch holding rec's columns plus a
// trailing all-false boolean column, conforming to outSchema.
func withFalseRetraction(outSchema *arrow.Schema, rec arrow.RecordBatch, alloc memory.Allocator) (arrow.RecordBatch, error) {
	n := int(rec.NumRows())
	cols := make([]arrow.Array, rec.NumCols()+1)
	for i := 0; i < int(rec.NumCols()); i++ {
		cols[i] = rec.Column(i)
		cols[i].Retain()
	}
	b := array.NewBooleanBuilder(alloc)
	defer b.Release()
	for i := 0; i < n; i++ {
		b.Append(false)
	}
	cols[len(cols)-1] = b.NewArray()

	out := array.NewRecordBatch(outSchema, cols, int64(n))
	for _, c := range cols {
		c.Release()
	}
	return out, nil
}
