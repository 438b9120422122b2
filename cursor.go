package goci

import (
	"io"
)

// Field owns one result column's output registration: the define handle, the
// fixed-width output buffer the server writes into on every fetch, and the
// null-indicator cell.
type Field struct {
	def       OCIDefine
	buffer    []byte
	indicator *Sb2
	typ       DataType
	name      string
}

// Name returns the column name, if the server reported one.
func (f *Field) Name() string {
	return f.name
}

// Type returns the normalized type tag the column was defined with.
func (f *Field) Type() DataType {
	return f.typ
}

// IsNull reports whether the most recently fetched value is SQL NULL.
func (f *Field) IsNull() bool {
	return *f.indicator == nullIndicator
}

// Close frees the native define handle.
func (f *Field) Close() {
	if f.def != 0 {
		HandleFree(OCIHandle(f.def), OCI_HTYPE_DEFINE)
		f.def = 0
	}
}

func closeFields(fields []*Field) {
	for _, f := range fields {
		f.Close()
	}
}

// RowColumn is one column of a fetched row: the raw buffer contents and the
// null flag, snapshotted at fetch time.
type RowColumn struct {
	Type DataType
	Data []byte
	Null bool
}

// Row is the transient view of one fetched row handed to a RowDecoder. It is
// only valid for the duration of the decode call that receives it.
type Row struct {
	cols []RowColumn
}

// Len returns the number of columns.
func (r *Row) Len() int {
	return len(r.cols)
}

// Column returns the 0-based column i.
func (r *Row) Column(i int) RowColumn {
	return r.cols[i]
}

// RowDecoder materializes a typed value from one fetched row. The driver is
// generic over the target type; decoding strategy belongs to the caller.
type RowDecoder[T any] interface {
	DecodeRow(row *Row) (T, error)
}

// DecodeFunc adapts a plain function to a RowDecoder.
type DecodeFunc[T any] func(row *Row) (T, error)

// DecodeRow implements RowDecoder.
func (f DecodeFunc[T]) DecodeRow(row *Row) (T, error) {
	return f(row)
}

type cursorState uint8

const (
	cursorActive cursorState = iota
	cursorExhausted
	cursorFailed
)

// Cursor iterates the rows of an executed result-producing Statement. It
// exclusively owns its Fields and borrows the Statement it was created from.
//
// The sequence is forward-only and not restartable. Once Next has returned
// io.EOF or a fetch error, every further Next returns io.EOF.
type Cursor[T any] struct {
	stmt    *Statement
	fields  []*Field
	decode  RowDecoder[T]
	state   cursorState
	fetched uint32
}

func newCursor[T any](stmt *Statement, fields []*Field, dec RowDecoder[T]) *Cursor[T] {
	return &Cursor[T]{
		stmt:   stmt,
		fields: fields,
		decode: dec,
	}
}

// Next fetches and decodes the next row. It returns io.EOF once the result
// set is exhausted, a fetch error exactly once if the native fetch fails
// (the cursor is then finished), or a *DecodeError when the row decoder
// rejects a row - the cursor stays usable after a decode error.
func (c *Cursor[T]) Next() (T, error) {
	var zero T
	if c.state != cursorActive {
		return zero, io.EOF
	}

	status := ociStmtFetch2(c.stmt.handle, c.stmt.conn.env.errHandle,
		1, OCI_FETCH_NEXT, 0, OCI_DEFAULT)
	if err := c.stmt.conn.env.check(status); err != nil {
		c.state = cursorFailed
		return zero, err
	}
	if status == OCI_NO_DATA {
		c.state = cursorExhausted
		return zero, io.EOF
	}

	c.fetched++

	row := c.snapshot()
	value, err := c.decode.DecodeRow(row)
	if err != nil {
		return zero, &DecodeError{Row: c.fetched, Err: err}
	}
	return value, nil
}

// snapshot copies the current buffer contents and null flags into a Row
// view. The next fetch overwrites the underlying buffers, so the copies must
// not be skipped.
func (c *Cursor[T]) snapshot() *Row {
	cols := make([]RowColumn, len(c.fields))
	for i, f := range c.fields {
		col := RowColumn{Type: f.typ, Null: f.IsNull()}
		if !col.Null {
			col.Data = make([]byte, len(f.buffer))
			copy(col.Data, f.buffer)
		}
		cols[i] = col
	}
	return &Row{cols: cols}
}

// Fetched returns the number of rows successfully fetched so far, counting
// rows whose decode failed.
func (c *Cursor[T]) Fetched() int {
	return int(c.fetched)
}

// Fields returns the cursor's column registrations in result order.
func (c *Cursor[T]) Fields() []*Field {
	return c.fields
}

// Close releases every Field. The borrowed Statement is left untouched.
func (c *Cursor[T]) Close() {
	closeFields(c.fields)
	c.fields = nil
	if c.state == cursorActive {
		c.state = cursorExhausted
	}
}
