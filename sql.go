package goci

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

var (
	_ driver.Conn = (*sqlConn)(nil)
	_ driver.Stmt = (*sqlStmt)(nil)
	_ driver.Tx   = (*sqlTx)(nil)
)

// sqlConn adapts a Connection to database/sql/driver.Conn.
type sqlConn struct {
	conn *Connection
}

// Prepare validates query's placeholders for this session. Repeated named
// placeholders are rejected up front: binding is positional, so a name
// occurring twice would leave its second occurrence unbound.
func (c *sqlConn) Prepare(query string) (driver.Stmt, error) {
	if name := repeatedPlaceholder(query); name != "" {
		return nil, fmt.Errorf("goci: placeholder :%s appears more than once; binds are positional", name)
	}
	return &sqlStmt{conn: c.conn, query: query, numInput: countPlaceholders(query)}, nil
}

// Close drops this handle's reference on the session. The session tears down
// once the last statement sharing it is closed too.
func (c *sqlConn) Close() error {
	return c.conn.Close()
}

// Begin starts an explicit transaction.
func (c *sqlConn) Begin() (driver.Tx, error) {
	if err := c.conn.BeginTransaction(); err != nil {
		return nil, err
	}
	return &sqlTx{conn: c.conn}, nil
}

// sqlStmt adapts a statement text to database/sql/driver.Stmt. A Statement's
// binds are positional and strictly increasing for its whole lifetime, so one
// can only carry a single execution's arguments; each Exec or Query therefore
// prepares a fresh Statement on the shared session, and the prepared text can
// be re-executed indefinitely.
type sqlStmt struct {
	conn     *Connection
	query    string
	numInput int
}

func (s *sqlStmt) Close() error {
	return nil
}

func (s *sqlStmt) NumInput() int {
	return s.numInput
}

// prepareBound prepares one execution's Statement with args bound in
// positional order.
func (s *sqlStmt) prepareBound(args []driver.Value) (*Statement, error) {
	stmt, err := Prepare(s.conn, s.query)
	if err != nil {
		return nil, err
	}
	for _, arg := range args {
		typ, buf, err := bindValue(arg)
		if err != nil {
			stmt.Close()
			return nil, err
		}
		if err := stmt.Bind(typ, buf); err != nil {
			stmt.Close()
			return nil, err
		}
	}
	return stmt, nil
}

// Exec binds args and executes the statement once.
func (s *sqlStmt) Exec(args []driver.Value) (driver.Result, error) {
	stmt, err := s.prepareBound(args)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	if err := stmt.Run(); err != nil {
		return nil, err
	}
	affected, err := stmt.AffectedRows()
	if err != nil {
		return nil, err
	}
	return &sqlResult{rowsAffected: int64(affected)}, nil
}

// Query binds args, executes the statement and returns its result rows. The
// rows own the execution's Statement and release it on Close.
func (s *sqlStmt) Query(args []driver.Value) (driver.Rows, error) {
	stmt, err := s.prepareBound(args)
	if err != nil {
		return nil, err
	}
	cursor, err := RunWithCursor[[]driver.Value](stmt, valuesDecoder{})
	if err != nil {
		stmt.Close()
		return nil, err
	}
	return newSQLRows(stmt, cursor), nil
}

// sqlTx finishes the explicit transaction started by Begin.
type sqlTx struct {
	conn *Connection
	done bool
}

var errTxDone = errors.New("goci: transaction already finished")

func (t *sqlTx) Commit() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	return t.conn.Commit()
}

func (t *sqlTx) Rollback() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	return t.conn.Rollback()
}
