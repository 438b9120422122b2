package goci

import "database/sql/driver"

var _ driver.Result = (*sqlResult)(nil)

// sqlResult reports the outcome of an Exec.
type sqlResult struct {
	rowsAffected int64
}

// LastInsertId is not supported by the native interface; it always returns
// zero.
func (r *sqlResult) LastInsertId() (int64, error) {
	return 0, nil
}

func (r *sqlResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}
