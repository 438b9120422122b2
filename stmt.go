package goci

import (
	"log"
	"runtime"
	"strings"
	"unsafe"
)

// defaultBindCapacity sizes the retained bind slices for the common case.
const defaultBindCapacity = 20

// Statement is a prepared statement on a Connection. It owns the native
// statement handle and retains every bind buffer, size and null indicator
// for its whole lifetime: the native calls hold pointers into them until
// execution completes.
type Statement struct {
	conn    *Connection
	handle  OCIStmt
	isQuery bool

	bindIndex  Ub4
	buffers    [][]byte
	sizes      []Sb4
	indicators []*Sb2

	closed bool
}

// Prepare prepares sql on conn. DDL statements are prepared twice: the
// server does not support reusing a single prepare for DDL, so anything
// starting with CREATE gets a fresh prepare before execution.
//
// A statement is classified as result-producing when the text contains
// SELECT or select anywhere. That substring check can misfire on quoted
// literals; callers that hit the false positive should rewrite the literal.
func Prepare(conn *Connection, sql string) (*Statement, error) {
	text := []byte(sql)
	errh := conn.env.errHandle

	var handle OCIStmt
	status := ociStmtPrepare2(conn.svc, &handle, errh,
		byteRef(text), Ub4(len(text)), nil, 0, OCI_NTV_SYNTAX, OCI_DEFAULT)
	if err := conn.env.check(status); err != nil {
		return nil, err
	}

	if needsReprepare(sql) {
		status = ociStmtPrepare2(conn.svc, &handle, errh,
			byteRef(text), Ub4(len(text)), nil, 0, OCI_NTV_SYNTAX, OCI_DEFAULT)
		if err := conn.env.check(status); err != nil {
			return nil, err
		}
	}
	runtime.KeepAlive(text)

	conn.retain()
	return &Statement{
		conn:       conn,
		handle:     handle,
		isQuery:    isQueryText(sql),
		buffers:    make([][]byte, 0, defaultBindCapacity),
		sizes:      make([]Sb4, 0, defaultBindCapacity),
		indicators: make([]*Sb2, 0, defaultBindCapacity),
	}, nil
}

// needsReprepare reports whether sql is a DDL statement that must be
// prepared a second time before execution.
func needsReprepare(sql string) bool {
	i := strings.Index(sql, "CREATE")
	return i >= 0 && i < 10
}

// isQueryText reports whether sql produces a result set.
func isQueryText(sql string) bool {
	return strings.Contains(sql, "SELECT") || strings.Contains(sql, "select")
}

// Bind assigns value to the next positional placeholder, 1-based, in call
// order. A nil value binds SQL NULL: a zero-length buffer with indicator -1.
// The value bytes are copied into a buffer owned by the Statement.
func (s *Statement) Bind(typ DataType, value []byte) error {
	s.bindIndex++

	var buf []byte
	var size Sb4
	indicator := new(Sb2)
	if value != nil {
		buf = make([]byte, len(value))
		copy(buf, value)
		size = Sb4(len(buf))
	} else {
		*indicator = nullIndicator
	}

	dty := typ.ociType()
	if size == 4 && typ == TypeFloat {
		// 4-byte floats go over the wire with the narrow float code
		dty = SQLT_BFLOAT
	}

	errh := s.conn.env.errHandle
	var bindp OCIBind
	status := ociBindByPos(s.handle, &bindp, errh, s.bindIndex,
		bufPtr(buf), size, dty,
		uintptr(unsafe.Pointer(indicator)), 0, 0, 0, 0, OCI_DEFAULT)

	// Retained for the statement's lifetime regardless of status: the
	// native side may already hold these pointers.
	s.buffers = append(s.buffers, buf)
	s.sizes = append(s.sizes, size)
	s.indicators = append(s.indicators, indicator)

	if err := s.conn.env.check(status); err != nil {
		return err
	}

	if typ == TypeChar {
		csID := s.conn.env.csID
		ociAttrSet(OCIHandle(bindp), OCI_HTYPE_BIND,
			uintptr(unsafe.Pointer(&csID)), 0, OCI_ATTR_CHARSET_ID, errh)
	}
	return nil
}

// Run executes the statement. Result-producing statements execute with zero
// iterations so rows materialize on fetch; everything else executes once.
func (s *Statement) Run() error {
	iters := Ub4(1)
	if s.isQuery {
		iters = 0
	}
	status := ociStmtExecute(s.conn.svc, s.handle, s.conn.env.errHandle,
		iters, 0, 0, 0, OCI_DEFAULT)
	return s.conn.env.check(status)
}

// AffectedRows reads the row-count attribute. Valid only after Run.
func (s *Statement) AffectedRows() (int, error) {
	var rows Ub4
	status := ociAttrGet(OCIHandle(s.handle), OCI_HTYPE_STMT,
		uintptr(unsafe.Pointer(&rows)), nil, OCI_ATTR_ROW_COUNT, s.conn.env.errHandle)
	if err := s.conn.env.check(status); err != nil {
		return 0, err
	}
	return int(rows), nil
}

// ColumnCount reads the result-column count. Valid only after Run on a
// result-producing statement.
func (s *Statement) ColumnCount() (int, error) {
	var count Ub4
	status := ociAttrGet(OCIHandle(s.handle), OCI_HTYPE_STMT,
		uintptr(unsafe.Pointer(&count)), nil, OCI_ATTR_PARAM_COUNT, s.conn.env.errHandle)
	if err := s.conn.env.check(status); err != nil {
		return 0, err
	}
	return int(count), nil
}

// columnDesc is the resolved shape of one output column.
type columnDesc struct {
	name  string
	dty   Ub2
	width Ub4
}

// describeColumn resolves the type, buffer width and name of the 1-based
// column pos from its parameter descriptor.
func (s *Statement) describeColumn(pos int) (columnDesc, error) {
	errh := s.conn.env.errHandle

	var param OCIParam
	status := ociParamGet(OCIHandle(s.handle), OCI_HTYPE_STMT, errh, &param, Ub4(pos))
	if err := s.conn.env.check(status); err != nil {
		return columnDesc{}, err
	}
	defer DescriptorFree(OCIHandle(param), OCI_DTYPE_PARAM)

	var code Ub2
	status = ociAttrGet(OCIHandle(param), OCI_DTYPE_PARAM,
		uintptr(unsafe.Pointer(&code)), nil, OCI_ATTR_DATA_TYPE, errh)
	if err := s.conn.env.check(status); err != nil {
		return columnDesc{}, err
	}

	var precision int16
	var scale int8
	if code == SQLT_NUM {
		status = ociAttrGet(OCIHandle(param), OCI_DTYPE_PARAM,
			uintptr(unsafe.Pointer(&precision)), nil, OCI_ATTR_PRECISION, errh)
		if err := s.conn.env.check(status); err != nil {
			return columnDesc{}, err
		}
		status = ociAttrGet(OCIHandle(param), OCI_DTYPE_PARAM,
			uintptr(unsafe.Pointer(&scale)), nil, OCI_ATTR_SCALE, errh)
		if err := s.conn.env.check(status); err != nil {
			return columnDesc{}, err
		}
	}

	dty, width, err := resolveTypeAndSize(code, precision, scale)
	if err != nil {
		return columnDesc{}, err
	}
	if width == 0 {
		// Character-typed columns size their buffer from the column's
		// character-size attribute.
		var charSize Ub2
		status = ociAttrGet(OCIHandle(param), OCI_DTYPE_PARAM,
			uintptr(unsafe.Pointer(&charSize)), nil, OCI_ATTR_CHAR_SIZE, errh)
		if err := s.conn.env.check(status); err != nil {
			return columnDesc{}, err
		}
		width = Ub4(charSize)
	}

	return columnDesc{name: s.columnName(param), dty: dty, width: width}, nil
}

// columnName reads the column name attribute from a parameter descriptor.
// Name lookup is best-effort; an unnamed column is not an error.
func (s *Statement) columnName(param OCIParam) string {
	var namep *byte
	var nameLen Ub4
	status := ociAttrGet(OCIHandle(param), OCI_DTYPE_PARAM,
		uintptr(unsafe.Pointer(&namep)), &nameLen, OCI_ATTR_NAME, s.conn.env.errHandle)
	if !IsSuccess(status) || namep == nil || nameLen == 0 {
		return ""
	}
	return string(unsafe.Slice(namep, nameLen))
}

// define registers an output buffer of the resolved width for the 1-based
// column pos and appends the resulting Field. The type must map to a known
// tag before anything is registered with the native side.
func (s *Statement) define(fields *[]*Field, desc columnDesc, pos int) error {
	typ, ok := dataTypeFromOCI(desc.dty)
	if !ok {
		return &UnsupportedTypeError{Code: desc.dty}
	}

	buffer := make([]byte, desc.width)
	indicator := new(Sb2)

	var def OCIDefine
	status := ociDefineByPos(s.handle, &def, s.conn.env.errHandle, Ub4(pos),
		bufPtr(buffer), Sb4(len(buffer)), desc.dty,
		uintptr(unsafe.Pointer(indicator)), 0, 0, OCI_DEFAULT)
	if err := s.conn.env.check(status); err != nil {
		return err
	}

	*fields = append(*fields, &Field{
		def:       def,
		buffer:    buffer,
		indicator: indicator,
		typ:       typ,
		name:      desc.name,
	})
	return nil
}

// defineAllColumns resolves and defines every result column in order.
func (s *Statement) defineAllColumns() ([]*Field, error) {
	count, err := s.ColumnCount()
	if err != nil {
		return nil, err
	}
	fields := make([]*Field, 0, count)
	for i := 0; i < count; i++ {
		pos := i + 1
		desc, err := s.describeColumn(pos)
		if err != nil {
			closeFields(fields)
			return nil, err
		}
		if err := s.define(&fields, desc, pos); err != nil {
			closeFields(fields)
			return nil, err
		}
	}
	return fields, nil
}

// RunWithCursor executes the statement, defines every result column, and
// returns a Cursor feeding fetched rows through dec.
func RunWithCursor[T any](s *Statement, dec RowDecoder[T]) (*Cursor[T], error) {
	if err := s.Run(); err != nil {
		return nil, err
	}
	fields, err := s.defineAllColumns()
	if err != nil {
		return nil, err
	}
	return newCursor(s, fields, dec), nil
}

// Close releases the native statement handle and drops the Statement's
// reference on its Connection. A release failure is logged only; Close must
// not fail during unwind.
func (s *Statement) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	status := ociStmtRelease(s.handle, s.conn.env.errHandle, nil, 0, OCI_DEFAULT)
	if err := s.conn.env.check(status); err != nil {
		log.Printf("goci: releasing statement: %v", err)
	}
	s.handle = 0

	s.conn.release()
	return nil
}
