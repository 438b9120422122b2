package goci

// BeginTransaction starts an explicit transaction on the session. Statement
// execution outside an explicit transaction autocommits on the server side;
// transaction policy beyond these hooks belongs to the caller.
func (c *Connection) BeginTransaction() error {
	status := ociTransStart(c.svc, c.env.errHandle, 0, OCI_DEFAULT)
	return c.env.check(status)
}

// Commit commits the current transaction.
func (c *Connection) Commit() error {
	status := ociTransCommit(c.svc, c.env.errHandle, OCI_DEFAULT)
	return c.env.check(status)
}

// Rollback rolls back the current transaction.
func (c *Connection) Rollback() error {
	status := ociTransRollback(c.svc, c.env.errHandle, OCI_DEFAULT)
	return c.env.check(status)
}
