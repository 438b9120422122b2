package goci

import (
	"fmt"
)

// Environment owns the native environment and error-reporting handles plus
// the resolved character-set id. One Environment exists per Connection and is
// destroyed last, after every dependent handle.
type Environment struct {
	handle    OCIEnv
	errHandle OCIError
	csID      Ub2
}

// newEnvironment creates the native environment, allocates the error handle
// every other call reports through, and resolves the UTF-8 character set id.
func newEnvironment() (*Environment, error) {
	var handle OCIEnv
	status := ociEnvNlsCreate(&handle, OCI_DEFAULT, 0, 0, 0, 0, 0, 0, 0, 0)
	if status != OCI_SUCCESS {
		return nil, &ConnectionError{Reason: fmt.Sprintf("could not create environment: status %d", status)}
	}

	var errHandle OCIHandle
	if ret := HandleAlloc(handle, &errHandle, OCI_HTYPE_ERROR); !IsSuccess(ret) {
		HandleFree(OCIHandle(handle), OCI_HTYPE_ENV)
		return nil, &ConnectionError{Reason: fmt.Sprintf("could not allocate error handle: status %d", ret)}
	}

	enc := []byte("UTF8\x00")
	csID := ociNlsCharSetNameToID(handle, &enc[0])

	return &Environment{
		handle:    handle,
		errHandle: OCIError(errHandle),
		csID:      csID,
	}, nil
}

// check translates a native status using the environment's error handle.
func (e *Environment) check(status Sword) error {
	return ociError(e.errHandle, status)
}

// Close frees the environment's handles. The error handle must go before the
// environment handle it was allocated against.
func (e *Environment) Close() {
	if e.errHandle != 0 {
		HandleFree(OCIHandle(e.errHandle), OCI_HTYPE_ERROR)
		e.errHandle = 0
	}
	if e.handle != 0 {
		HandleFree(OCIHandle(e.handle), OCI_HTYPE_ENV)
		e.handle = 0
	}
}
