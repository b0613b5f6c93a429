// Package sink provides terminal Nodes: Print renders each batch as a table
// for interactive inspection, and Materialize folds a retraction stream into
// a live, queryable snapshot.
package sink

import (
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/olekukonko/tablewriter"

	"github.com/arrowpipe/flowcore"
	"github.com/arrowpipe/flowcore/key"
)

// Print is a terminal Node that writes the row count of every batch it
// receives followed by the batch rendered as a table, one render per batch,
// including the trailing retraction column so retract/replace pairs are
// visible.
type Print struct {
	source flowcore.Node
	out    io.Writer
}

// NewPrint builds a Print sink writing to out.
func NewPrint(source flowcore.Node, out io.Writer) *Print {
	return &Print{source: source, out: out}
}

func (p *Print) Schema() (*arrow.Schema, error) {
	return p.source.Schema()
}

// Run reads every upstream batch and writes its row count and table before
// moving on to the next; it produces nothing of its own.
func (p *Print) Run(ctx *flowcore.ExecutionContext, produce flowcore.ProduceFunc, metaSend flowcore.MetaSendFunc) error {
	schema, err := p.source.Schema()
	if err != nil {
		return err
	}
	headers := make([]string, schema.NumFields())
	for i := range headers {
		headers[i] = schema.Field(i).Name
	}

	return p.source.Run(ctx,
		func(pctx *flowcore.ProduceContext, batch arrow.RecordBatch) error {
			nrows := int(batch.NumRows())
			if _, err := fmt.Fprintf(p.out, "%d rows\n", nrows); err != nil {
				return flowcore.NewIOError(err, "print: writing row count")
			}
			table := tablewriter.NewWriter(p.out)
			table.Header(headers)
			for row := 0; row < nrows; row++ {
				rec := make([]string, schema.NumFields())
				for col := 0; col < int(batch.NumCols()); col++ {
					v, err := key.At(batch.Column(col), row)
					if err != nil {
						return err
					}
					rec[col] = formatScalar(v)
				}
				table.Append(rec)
			}
			table.Render()
			return nil
		},
		metaSend,
	)
}

func formatScalar(v key.Scalar) string {
	if v.IsNull() {
		return "NULL"
	}
	switch v.Kind {
	case key.String:
		return v.S
	case key.Bool:
		return strconv.FormatBool(v.I != 0)
	default:
		return fmt.Sprint(v.String())
	}
}
