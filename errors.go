package goci

import (
	"bytes"
	"fmt"
	"unsafe"
)

// Error represents a database error with the diagnostic extracted from the
// native error handle. Code is the ORA error number reported by the server.
type Error struct {
	Code    Sb4
	Message string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("OCI error %d", e.Code)
}

// Is reports whether target matches this error's code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// ConnectionError is returned when establishing a session fails.
type ConnectionError struct {
	Reason string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return "connection: " + e.Reason + ": " + e.Err.Error()
	}
	return "connection: " + e.Reason
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// InvalidDSNError is returned when a connection string cannot be parsed.
type InvalidDSNError struct {
	DSN    string
	Reason string
}

func (e *InvalidDSNError) Error() string {
	return fmt.Sprintf("invalid connection string %q: %s", e.DSN, e.Reason)
}

// UnsupportedTypeError is returned when a column reports a native type code
// outside the recognized mapping.
type UnsupportedTypeError struct {
	Code Ub2
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported type %d", e.Code)
}

// DecodeError wraps a row-decoder failure for a single fetched row. The
// cursor remains usable after returning one.
type DecodeError struct {
	Row uint32
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding row %d: %v", e.Row, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ociError translates an OCI status into an error, pulling the diagnostic
// text from the error handle when the status requires it. Statuses other
// than OCI_ERROR and OCI_INVALID_HANDLE are not failures.
func ociError(errhp OCIError, status Sword) error {
	switch status {
	case OCI_ERROR:
		buf := make([]byte, OCI_ERROR_MAXMSG_SIZE2+1)
		var code Sb4
		ret := ociErrorGet(OCIHandle(errhp), 1, 0, &code, &buf[0], Ub4(len(buf)), OCI_HTYPE_ERROR)
		if ret == OCI_NO_DATA {
			return nil
		}
		// The diagnostic buffer is NUL-terminated; everything past the
		// first NUL is garbage.
		msg := buf
		if i := bytes.IndexByte(buf, 0); i >= 0 {
			msg = buf[:i]
		}
		return &Error{Code: code, Message: string(msg)}
	case OCI_INVALID_HANDLE:
		return &Error{Code: Sb4(status), Message: "OCI_INVALID_HANDLE"}
	default:
		return nil
	}
}

// byteRef returns a pointer to the first byte of b, or nil for an empty
// slice.
func byteRef(b []byte) *byte {
	if len(b) == 0 {
		return nil
	}
	return &b[0]
}

// bufPtr returns the address of the first byte of b as a uintptr for native
// calls, or 0 for an empty slice. The caller must keep b reachable for the
// duration of the call it is used in.
func bufPtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
