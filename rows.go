package goci

import (
	"database/sql/driver"
)

var _ driver.Rows = (*sqlRows)(nil)

// valuesDecoder decodes every column of a row into its natural Go driver
// value.
type valuesDecoder struct{}

func (valuesDecoder) DecodeRow(row *Row) ([]driver.Value, error) {
	values := make([]driver.Value, row.Len())
	for i := range values {
		v, err := decodeValue(row.Column(i))
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// sqlRows adapts a Cursor of decoded value slices to database/sql/driver.Rows.
// It owns the execution's Statement and releases it together with the cursor.
type sqlRows struct {
	stmt    *Statement
	cursor  *Cursor[[]driver.Value]
	columns []string
}

func newSQLRows(stmt *Statement, cursor *Cursor[[]driver.Value]) *sqlRows {
	fields := cursor.Fields()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name()
	}
	return &sqlRows{stmt: stmt, cursor: cursor, columns: columns}
}

func (r *sqlRows) Columns() []string {
	return r.columns
}

// Next advances to the next row and copies its values into dest. It returns
// io.EOF at the end of the result set.
func (r *sqlRows) Next(dest []driver.Value) error {
	values, err := r.cursor.Next()
	if err != nil {
		return err
	}
	copy(dest, values)
	return nil
}

func (r *sqlRows) Close() error {
	r.cursor.Close()
	return r.stmt.Close()
}
