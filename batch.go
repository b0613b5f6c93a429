package flowcore

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// RetractionFieldName is the reserved trailing field every streaming schema
// in this core must carry.
const RetractionFieldName = "retraction"

// RetractionField returns the field every node-boundary schema must carry as
// its last field.
func RetractionField() arrow.Field {
	return arrow.Field{Name: RetractionFieldName, Type: arrow.FixedWidthTypes.Boolean}
}

// WithRetraction returns a schema equal to fields with RetractionField
// appended, unless fields already ends with a field of that name.
func WithRetraction(fields []arrow.Field) *arrow.Schema {
	if n := len(fields); n > 0 && fields[n-1].Name == RetractionFieldName {
		return arrow.NewSchema(fields, nil)
	}
	out := make([]arrow.Field, len(fields)+1)
	copy(out, fields)
	out[len(fields)] = RetractionField()
	return arrow.NewSchema(out, nil)
}

// RetractionIndex returns the index of the trailing retraction field in
// schema, failing with SchemaError if the schema doesn't end with one.
func RetractionIndex(schema *arrow.Schema) (int, error) {
	n := schema.NumFields()
	if n == 0 {
		return 0, NewSchemaError("schema has no fields, expected a trailing %q field", RetractionFieldName)
	}
	last := schema.Field(n - 1)
	if last.Name != RetractionFieldName {
		return 0, NewSchemaError("schema's last field is %q, expected %q", last.Name, RetractionFieldName)
	}
	if last.Type.ID() != arrow.BOOL {
		return 0, NewSchemaError("field %q has type %s, expected boolean", RetractionFieldName, last.Type)
	}
	return n - 1, nil
}

// ValidateBatch checks that batch conforms to schema: same field count,
// matching types in order, and all columns sharing one row count.
func ValidateBatch(schema *arrow.Schema, batch arrow.RecordBatch) error {
	bs := batch.Schema()
	if bs.NumFields() != schema.NumFields() {
		return NewInvariantError("batch has %d columns, schema declares %d", bs.NumFields(), schema.NumFields())
	}
	for i := 0; i < schema.NumFields(); i++ {
		want := schema.Field(i)
		got := bs.Field(i)
		if got.Name != want.Name || !arrow.TypeEqual(got.Type, want.Type) {
			return NewSchemaError("column %d: batch has %s:%s, schema declares %s:%s", i, got.Name, got.Type, want.Name, want.Type)
		}
	}
	rows := batch.NumRows()
	for i := 0; i < int(batch.NumCols()); i++ {
		if int64(batch.Column(i).Len()) != rows {
			return NewInvariantError("column %d has %d rows, batch declares %d", i, batch.Column(i).Len(), rows)
		}
	}
	if _, err := RetractionIndex(schema); err != nil {
		return err
	}
	return nil
}
