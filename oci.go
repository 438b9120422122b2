package goci

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

var (
	ociLib   uintptr
	initOnce sync.Once
	initErr  error
)

// OCI function pointers - populated by purego
var (
	ociEnvNlsCreate      func(envhpp *OCIEnv, mode Ub4, ctxp, malocfp, ralocfp, mfreefp, xtramemsz, usrmempp uintptr, charset, ncharset Ub2) Sword
	ociHandleAlloc       func(parenth OCIHandle, hndlpp *OCIHandle, htype Ub4, xtramemsz uintptr, usrmempp uintptr) Sword
	ociHandleFree        func(hndlp OCIHandle, htype Ub4) Sword
	ociDescriptorFree    func(descp OCIHandle, dtype Ub4) Sword
	ociNlsCharSetNameToID func(envhp OCIEnv, name *byte) Ub2
	ociServerAttach      func(srvhp OCIServer, errhp OCIError, dblink *byte, dblinkLen Sb4, mode Ub4) Sword
	ociServerDetach      func(srvhp OCIServer, errhp OCIError, mode Ub4) Sword
	ociSessionBegin      func(svchp OCISvcCtx, errhp OCIError, usrhp OCISession, credt Ub4, mode Ub4) Sword
	ociSessionEnd        func(svchp OCISvcCtx, errhp OCIError, usrhp OCISession, mode Ub4) Sword
	ociAttrSet           func(trgthndlp OCIHandle, trghndltyp Ub4, attributep uintptr, size Ub4, attrtype Ub4, errhp OCIError) Sword
	ociAttrGet           func(trgthndlp OCIHandle, trghndltyp Ub4, attributep uintptr, sizep *Ub4, attrtype Ub4, errhp OCIError) Sword
	ociStmtPrepare2      func(svchp OCISvcCtx, stmtpp *OCIStmt, errhp OCIError, stmttext *byte, stmtLen Ub4, key *byte, keyLen Ub4, language Ub4, mode Ub4) Sword
	ociStmtRelease       func(stmtp OCIStmt, errhp OCIError, key *byte, keyLen Ub4, mode Ub4) Sword
	ociStmtExecute       func(svchp OCISvcCtx, stmtp OCIStmt, errhp OCIError, iters Ub4, rowoff Ub4, snapIn, snapOut uintptr, mode Ub4) Sword
	ociBindByPos         func(stmtp OCIStmt, bindpp *OCIBind, errhp OCIError, position Ub4, valuep uintptr, valueSz Sb4, dty Ub2, indp uintptr, alenp, rcodep uintptr, maxarrLen Ub4, curelep uintptr, mode Ub4) Sword
	ociDefineByPos       func(stmtp OCIStmt, defnpp *OCIDefine, errhp OCIError, position Ub4, valuep uintptr, valueSz Sb4, dty Ub2, indp uintptr, rlenp, rcodep uintptr, mode Ub4) Sword
	ociParamGet          func(hndlp OCIHandle, htype Ub4, errhp OCIError, parmdpp *OCIParam, pos Ub4) Sword
	ociStmtFetch2        func(stmtp OCIStmt, errhp OCIError, nrows Ub4, orientation Ub2, fetchOffset Sb4, mode Ub4) Sword
	ociErrorGet          func(hndlp OCIHandle, recordno Ub4, sqlstate uintptr, errcodep *Sb4, bufp *byte, bufsiz Ub4, htype Ub4) Sword
	ociTransStart        func(svchp OCISvcCtx, errhp OCIError, timeout Ub2, flags Ub4) Sword
	ociTransCommit       func(svchp OCISvcCtx, errhp OCIError, flags Ub4) Sword
	ociTransRollback     func(svchp OCISvcCtx, errhp OCIError, flags Ub4) Sword
)

// getLibraryPath returns the platform-specific Oracle client library path.
// The GOCI_LIBRARY_PATH environment variable can override the default path.
func getLibraryPath() string {
	// Check environment variable first
	if path := os.Getenv("GOCI_LIBRARY_PATH"); path != "" {
		return path
	}

	switch runtime.GOOS {
	case "windows":
		return "oci.dll"
	case "darwin":
		// Check common Instant Client locations
		paths := []string{
			"/opt/oracle/instantclient/libclntsh.dylib",
			"/usr/local/lib/libclntsh.dylib",
		}
		for _, p := range paths {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
		return "libclntsh.dylib" // Let purego search standard paths
	default:
		// Linux and other Unix-like systems
		return "libclntsh.so"
	}
}

// initOCI loads the Oracle client library and registers all functions.
// If loading fails, set GOCI_LIBRARY_PATH to specify a custom library location.
func initOCI() error {
	initOnce.Do(func() {
		libPath := getLibraryPath()

		// Use platform-specific library loading (implemented in oci_unix.go and oci_windows.go)
		ociLib, initErr = loadOCILibrary(libPath)
		if initErr != nil {
			initErr = fmt.Errorf("failed to load Oracle client library %q: %w (set GOCI_LIBRARY_PATH to override)", libPath, initErr)
			return
		}

		// Handle management
		purego.RegisterLibFunc(&ociEnvNlsCreate, ociLib, "OCIEnvNlsCreate")
		purego.RegisterLibFunc(&ociHandleAlloc, ociLib, "OCIHandleAlloc")
		purego.RegisterLibFunc(&ociHandleFree, ociLib, "OCIHandleFree")
		purego.RegisterLibFunc(&ociDescriptorFree, ociLib, "OCIDescriptorFree")
		purego.RegisterLibFunc(&ociNlsCharSetNameToID, ociLib, "OCINlsCharSetNameToId")

		// Server and session
		purego.RegisterLibFunc(&ociServerAttach, ociLib, "OCIServerAttach")
		purego.RegisterLibFunc(&ociServerDetach, ociLib, "OCIServerDetach")
		purego.RegisterLibFunc(&ociSessionBegin, ociLib, "OCISessionBegin")
		purego.RegisterLibFunc(&ociSessionEnd, ociLib, "OCISessionEnd")
		purego.RegisterLibFunc(&ociAttrSet, ociLib, "OCIAttrSet")
		purego.RegisterLibFunc(&ociAttrGet, ociLib, "OCIAttrGet")

		// Statements
		purego.RegisterLibFunc(&ociStmtPrepare2, ociLib, "OCIStmtPrepare2")
		purego.RegisterLibFunc(&ociStmtRelease, ociLib, "OCIStmtRelease")
		purego.RegisterLibFunc(&ociStmtExecute, ociLib, "OCIStmtExecute")
		purego.RegisterLibFunc(&ociBindByPos, ociLib, "OCIBindByPos")
		purego.RegisterLibFunc(&ociDefineByPos, ociLib, "OCIDefineByPos")
		purego.RegisterLibFunc(&ociParamGet, ociLib, "OCIParamGet")
		purego.RegisterLibFunc(&ociStmtFetch2, ociLib, "OCIStmtFetch2")

		// Diagnostics and transactions
		purego.RegisterLibFunc(&ociErrorGet, ociLib, "OCIErrorGet")
		purego.RegisterLibFunc(&ociTransStart, ociLib, "OCITransStart")
		purego.RegisterLibFunc(&ociTransCommit, ociLib, "OCITransCommit")
		purego.RegisterLibFunc(&ociTransRollback, ociLib, "OCITransRollback")
	})
	return initErr
}

// HandleAlloc allocates an OCI handle against the environment
func HandleAlloc(env OCIEnv, hndlpp *OCIHandle, htype Ub4) Sword {
	return ociHandleAlloc(OCIHandle(env), hndlpp, htype, 0, 0)
}

// HandleFree frees an OCI handle
func HandleFree(hndlp OCIHandle, htype Ub4) Sword {
	return ociHandleFree(hndlp, htype)
}

// DescriptorFree frees an OCI descriptor
func DescriptorFree(descp OCIHandle, dtype Ub4) Sword {
	return ociDescriptorFree(descp, dtype)
}
