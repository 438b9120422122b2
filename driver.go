package goci

import (
	"context"
	"database/sql"
	"database/sql/driver"
)

func init() {
	sql.Register("goci", &Driver{})
}

var (
	_ driver.Driver        = (*Driver)(nil)
	_ driver.DriverContext = (*Driver)(nil)
	_ driver.Connector     = (*Connector)(nil)
)

// Driver implements database/sql/driver.Driver over native client sessions.
type Driver struct{}

// Open establishes a new session for dsn.
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	connector, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

// OpenConnector validates dsn and loads the native client library once,
// before any session is attempted.
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	if _, err := ParseDSN(dsn); err != nil {
		return nil, err
	}
	if err := initOCI(); err != nil {
		return nil, err
	}
	return &Connector{dsn: dsn}, nil
}

// Connector holds a validated DSN and produces sessions from it.
type Connector struct {
	dsn string
}

// Connect establishes a session.
func (c *Connector) Connect(_ context.Context) (driver.Conn, error) {
	conn, err := Establish(c.dsn)
	if err != nil {
		return nil, err
	}
	return &sqlConn{conn: conn}, nil
}

// Driver returns the underlying Driver.
func (c *Connector) Driver() driver.Driver {
	return &Driver{}
}
