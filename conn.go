package goci

import (
	"log"
	"runtime"
	"sync"
)

// Connection owns an authenticated session against one server. It holds the
// Environment plus the four native handles the session is built from.
//
// A Connection is shared by every Statement prepared on it: each Prepare
// takes a reference and each Statement.Close drops one, so the session stays
// alive until the longest-surviving Statement and the Connection itself are
// both closed. None of this is safe for concurrent use; one goroutine drives
// one connection.
type Connection struct {
	env     *Environment
	svc     OCISvcCtx
	server  OCIServer
	session OCISession
	trans   OCITrans

	mu     sync.Mutex
	refs   int
	closed bool
}

// Establish parses the connection string, initializes the client library if
// needed, and opens an authenticated session. Any native failure aborts
// establishment with a *ConnectionError carrying the translated diagnostic;
// nothing allocated up to that point is leaked.
func Establish(dsn string) (*Connection, error) {
	params, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	if err := initOCI(); err != nil {
		return nil, &ConnectionError{Reason: "loading client library", Err: err}
	}

	env, err := newEnvironment()
	if err != nil {
		return nil, err
	}

	conn := &Connection{env: env, refs: 1}

	fail := func(reason string, err error) (*Connection, error) {
		conn.freeHandles()
		env.Close()
		return nil, &ConnectionError{Reason: reason, Err: err}
	}

	var server, svc, session, trans OCIHandle
	for _, h := range []struct {
		dst   *OCIHandle
		htype Ub4
	}{
		{&server, OCI_HTYPE_SERVER},
		{&svc, OCI_HTYPE_SVCCTX},
		{&session, OCI_HTYPE_SESSION},
		{&trans, OCI_HTYPE_TRANS},
	} {
		if ret := HandleAlloc(env.handle, h.dst, h.htype); !IsSuccess(ret) {
			conn.server, conn.svc, conn.session, conn.trans =
				OCIServer(server), OCISvcCtx(svc), OCISession(session), OCITrans(trans)
			return fail("allocating handles", env.check(ret))
		}
	}
	conn.server = OCIServer(server)
	conn.svc = OCISvcCtx(svc)
	conn.session = OCISession(session)
	conn.trans = OCITrans(trans)

	db := []byte(params.ConnectString)
	status := ociServerAttach(conn.server, env.errHandle, byteRef(db), Sb4(len(db)), OCI_DEFAULT)
	runtime.KeepAlive(db)
	if err := env.check(status); err != nil {
		return fail("attaching to server", err)
	}

	// Link the server into the service context
	ociAttrSet(OCIHandle(conn.svc), OCI_HTYPE_SVCCTX,
		uintptr(conn.server), 0, OCI_ATTR_SERVER, env.errHandle)

	// Credentials are set as raw byte attributes, not NUL-terminated
	user := []byte(params.Username)
	ociAttrSet(OCIHandle(conn.session), OCI_HTYPE_SESSION,
		bufPtr(user), Ub4(len(user)), OCI_ATTR_USERNAME, env.errHandle)
	password := []byte(params.Password)
	ociAttrSet(OCIHandle(conn.session), OCI_HTYPE_SESSION,
		bufPtr(password), Ub4(len(password)), OCI_ATTR_PASSWORD, env.errHandle)

	status = ociSessionBegin(conn.svc, env.errHandle, conn.session, OCI_CRED_RDBMS, OCI_DEFAULT)
	runtime.KeepAlive(user)
	runtime.KeepAlive(password)
	if err := env.check(status); err != nil {
		ociServerDetach(conn.server, env.errHandle, OCI_DEFAULT)
		return fail("beginning session", err)
	}

	// Link session and transaction into the service context
	ociAttrSet(OCIHandle(conn.svc), OCI_HTYPE_SVCCTX,
		uintptr(conn.session), 0, OCI_ATTR_SESSION, env.errHandle)
	ociAttrSet(OCIHandle(conn.svc), OCI_HTYPE_SVCCTX,
		uintptr(conn.trans), 0, OCI_ATTR_TRANS, env.errHandle)

	return conn, nil
}

// Close drops the Connection's own reference. The session is torn down once
// no Statement still holds one.
func (c *Connection) Close() error {
	c.release()
	return nil
}

// CharsetID returns the character-set id resolved for this connection.
func (c *Connection) CharsetID() Ub2 {
	return c.env.csID
}

func (c *Connection) retain() {
	c.mu.Lock()
	c.refs++
	c.mu.Unlock()
}

func (c *Connection) release() {
	c.mu.Lock()
	c.refs--
	last := c.refs == 0 && !c.closed
	if last {
		c.closed = true
	}
	c.mu.Unlock()

	if last {
		c.teardown()
	}
}

// teardown ends the session and frees every handle. Failures here are
// logged, never returned: teardown must run to completion so nothing leaks.
func (c *Connection) teardown() {
	status := ociSessionEnd(c.svc, c.env.errHandle, c.session, OCI_DEFAULT)
	if err := c.env.check(status); err != nil {
		log.Printf("goci: ending session: %v", err)
	}
	status = ociServerDetach(c.server, c.env.errHandle, OCI_DEFAULT)
	if err := c.env.check(status); err != nil {
		log.Printf("goci: detaching server: %v", err)
	}
	c.freeHandles()
	c.env.Close()
}

func (c *Connection) freeHandles() {
	if c.session != 0 {
		HandleFree(OCIHandle(c.session), OCI_HTYPE_SESSION)
		c.session = 0
	}
	if c.svc != 0 {
		HandleFree(OCIHandle(c.svc), OCI_HTYPE_SVCCTX)
		c.svc = 0
	}
	if c.server != 0 {
		HandleFree(OCIHandle(c.server), OCI_HTYPE_SERVER)
		c.server = 0
	}
	if c.trans != 0 {
		HandleFree(OCIHandle(c.trans), OCI_HTYPE_TRANS)
		c.trans = 0
	}
}
