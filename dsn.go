package goci

import (
	"strings"
)

// Scheme is the connection string prefix accepted by this driver.
const Scheme = "oci://"

// ConnParams holds the parsed parts of a connection string.
type ConnParams struct {
	Username      string
	Password      string
	ConnectString string
}

// ParseDSN parses a connection string of the form
//
//	oci://user/password@//host[:port]/service
//
// The connect string after the second "//" is passed to the server
// unmodified, so anything sqlplus accepts there works here too.
// Malformed input is reported as an *InvalidDSNError, never a panic.
func ParseDSN(dsn string) (ConnParams, error) {
	rest, ok := strings.CutPrefix(dsn, Scheme)
	if !ok {
		return ConnParams{}, &InvalidDSNError{DSN: dsn, Reason: "scheme must be " + Scheme}
	}

	parts := strings.Split(rest, "//")
	if len(parts) != 2 {
		return ConnParams{}, &InvalidDSNError{DSN: dsn, Reason: `expected a single "@//" between credentials and connect string`}
	}

	cred, connect := parts[0], parts[1]
	cred, ok = strings.CutSuffix(cred, "@")
	if !ok {
		return ConnParams{}, &InvalidDSNError{DSN: dsn, Reason: `credentials must end with "@"`}
	}

	user, password, ok := strings.Cut(cred, "/")
	if !ok {
		return ConnParams{}, &InvalidDSNError{DSN: dsn, Reason: `credentials must be of the form user/password`}
	}

	if connect == "" {
		return ConnParams{}, &InvalidDSNError{DSN: dsn, Reason: "empty connect string"}
	}

	return ConnParams{Username: user, Password: password, ConnectString: connect}, nil
}
