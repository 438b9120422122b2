package goci

import (
	"testing"
	"unsafe"
)

// fakeOCI replaces the native client entry points with in-process stubs so
// the whole call protocol can be exercised and inspected without a server.
type fakeOCI struct {
	t *testing.T

	nextHandle uintptr
	allocated  map[OCIHandle]Ub4
	freed      map[OCIHandle]Ub4
	freeOrder  []Ub4

	prepares     []string
	releases     int
	executeIters []Ub4

	binds        []fakeBind
	bindCharsets []Ub2

	attachedDB     string
	sessionBegun   bool
	sessionCred    Ub4
	sessionEnded   bool
	serverDetached int

	username string
	password string

	transStarts    int
	transCommits   int
	transRollbacks int

	affectedRows Ub4
	columns      []fakeColumn
	rows         []fakeRow
	fetchPos     int
	defines      []fakeDefine
	paramsFreed  int

	// Error injection. The message and code are served by the diagnostic
	// stub whenever a call returns OCI_ERROR.
	errCode       Sb4
	errMsg        string
	failAllocType Ub4
	failAttach    bool
	failSession   bool
	failPrepare   bool
	failExecute   bool
	failFetchAt   int
}

type fakeBind struct {
	position  Ub4
	dty       Ub2
	data      []byte
	size      Sb4
	indicator Sb2
}

type fakeColumn struct {
	name      string
	dataType  Ub2
	precision int16
	scale     int8
	charSize  Ub2

	nameBuf []byte
}

// fakeRow holds one cell per column; a nil cell is SQL NULL.
type fakeRow [][]byte

type fakeDefine struct {
	stmt     OCIStmt
	position Ub4
	dty      Ub2
	valuep   uintptr
	valueSz  Sb4
	indp     uintptr
}

const fakeParamBase = 0x70000

// installFake marks the library as loaded and points every native entry at
// the fake. Tests sharing the process must not run in parallel.
func installFake(t *testing.T) *fakeOCI {
	t.Helper()
	initOnce.Do(func() {})

	f := &fakeOCI{
		t:           t,
		nextHandle:  0x1000,
		allocated:   map[OCIHandle]Ub4{},
		freed:       map[OCIHandle]Ub4{},
		errCode:     1,
		errMsg:      "ORA-00001: fake error",
		failFetchAt: -1,
	}

	ociEnvNlsCreate = func(envhpp *OCIEnv, mode Ub4, ctxp, malocfp, ralocfp, mfreefp, xtramemsz, usrmempp uintptr, charset, ncharset Ub2) Sword {
		h := f.alloc(OCI_HTYPE_ENV)
		*envhpp = OCIEnv(h)
		return OCI_SUCCESS
	}
	ociHandleAlloc = func(parenth OCIHandle, hndlpp *OCIHandle, htype Ub4, xtramemsz uintptr, usrmempp uintptr) Sword {
		if f.failAllocType != 0 && htype == f.failAllocType {
			return OCI_ERROR
		}
		*hndlpp = f.alloc(htype)
		return OCI_SUCCESS
	}
	ociHandleFree = func(hndlp OCIHandle, htype Ub4) Sword {
		f.freed[hndlp] = htype
		f.freeOrder = append(f.freeOrder, htype)
		return OCI_SUCCESS
	}
	ociDescriptorFree = func(descp OCIHandle, dtype Ub4) Sword {
		if dtype == OCI_DTYPE_PARAM {
			f.paramsFreed++
		}
		return OCI_SUCCESS
	}
	ociNlsCharSetNameToID = func(envhp OCIEnv, name *byte) Ub2 {
		return 873
	}

	ociServerAttach = func(srvhp OCIServer, errhp OCIError, dblink *byte, dblinkLen Sb4, mode Ub4) Sword {
		if f.failAttach {
			return OCI_ERROR
		}
		f.attachedDB = string(unsafe.Slice(dblink, dblinkLen))
		return OCI_SUCCESS
	}
	ociServerDetach = func(srvhp OCIServer, errhp OCIError, mode Ub4) Sword {
		f.serverDetached++
		return OCI_SUCCESS
	}
	ociSessionBegin = func(svchp OCISvcCtx, errhp OCIError, usrhp OCISession, credt Ub4, mode Ub4) Sword {
		if f.failSession {
			return OCI_ERROR
		}
		f.sessionBegun = true
		f.sessionCred = credt
		return OCI_SUCCESS
	}
	ociSessionEnd = func(svchp OCISvcCtx, errhp OCIError, usrhp OCISession, mode Ub4) Sword {
		f.sessionEnded = true
		return OCI_SUCCESS
	}

	ociAttrSet = func(trgthndlp OCIHandle, trghndltyp Ub4, attributep uintptr, size Ub4, attrtype Ub4, errhp OCIError) Sword {
		switch {
		case trghndltyp == OCI_HTYPE_SESSION && attrtype == OCI_ATTR_USERNAME:
			f.username = copyAttrString(attributep, size)
		case trghndltyp == OCI_HTYPE_SESSION && attrtype == OCI_ATTR_PASSWORD:
			f.password = copyAttrString(attributep, size)
		case trghndltyp == OCI_HTYPE_BIND && attrtype == OCI_ATTR_CHARSET_ID:
			f.bindCharsets = append(f.bindCharsets, *(*Ub2)(unsafe.Pointer(attributep)))
		}
		return OCI_SUCCESS
	}
	ociAttrGet = func(trgthndlp OCIHandle, trghndltyp Ub4, attributep uintptr, sizep *Ub4, attrtype Ub4, errhp OCIError) Sword {
		switch trghndltyp {
		case OCI_HTYPE_STMT:
			switch attrtype {
			case OCI_ATTR_ROW_COUNT:
				*(*Ub4)(unsafe.Pointer(attributep)) = f.affectedRows
				return OCI_SUCCESS
			case OCI_ATTR_PARAM_COUNT:
				*(*Ub4)(unsafe.Pointer(attributep)) = Ub4(len(f.columns))
				return OCI_SUCCESS
			}
		case OCI_DTYPE_PARAM:
			col := f.paramColumn(trgthndlp)
			switch attrtype {
			case OCI_ATTR_DATA_TYPE:
				*(*Ub2)(unsafe.Pointer(attributep)) = col.dataType
				return OCI_SUCCESS
			case OCI_ATTR_PRECISION:
				*(*int16)(unsafe.Pointer(attributep)) = col.precision
				return OCI_SUCCESS
			case OCI_ATTR_SCALE:
				*(*int8)(unsafe.Pointer(attributep)) = col.scale
				return OCI_SUCCESS
			case OCI_ATTR_CHAR_SIZE:
				*(*Ub2)(unsafe.Pointer(attributep)) = col.charSize
				return OCI_SUCCESS
			case OCI_ATTR_NAME:
				if col.nameBuf == nil {
					col.nameBuf = []byte(col.name)
				}
				if len(col.nameBuf) == 0 {
					return OCI_SUCCESS
				}
				*(**byte)(unsafe.Pointer(attributep)) = &col.nameBuf[0]
				*sizep = Ub4(len(col.nameBuf))
				return OCI_SUCCESS
			}
		}
		f.t.Fatalf("unexpected attribute read: htype %d attr %d", trghndltyp, attrtype)
		return OCI_ERROR
	}

	ociStmtPrepare2 = func(svchp OCISvcCtx, stmtpp *OCIStmt, errhp OCIError, stmttext *byte, stmtLen Ub4, key *byte, keyLen Ub4, language Ub4, mode Ub4) Sword {
		if f.failPrepare {
			return OCI_ERROR
		}
		f.prepares = append(f.prepares, string(unsafe.Slice(stmttext, stmtLen)))
		*stmtpp = OCIStmt(f.alloc(OCI_HTYPE_STMT))
		return OCI_SUCCESS
	}
	ociStmtRelease = func(stmtp OCIStmt, errhp OCIError, key *byte, keyLen Ub4, mode Ub4) Sword {
		f.releases++
		f.freed[OCIHandle(stmtp)] = OCI_HTYPE_STMT
		return OCI_SUCCESS
	}
	ociStmtExecute = func(svchp OCISvcCtx, stmtp OCIStmt, errhp OCIError, iters Ub4, rowoff Ub4, snapIn, snapOut uintptr, mode Ub4) Sword {
		if f.failExecute {
			return OCI_ERROR
		}
		f.executeIters = append(f.executeIters, iters)
		return OCI_SUCCESS
	}
	ociBindByPos = func(stmtp OCIStmt, bindpp *OCIBind, errhp OCIError, position Ub4, valuep uintptr, valueSz Sb4, dty Ub2, indp uintptr, alenp, rcodep uintptr, maxarrLen Ub4, curelep uintptr, mode Ub4) Sword {
		b := fakeBind{
			position:  position,
			dty:       dty,
			size:      valueSz,
			indicator: *(*Sb2)(unsafe.Pointer(indp)),
		}
		if valueSz > 0 {
			src := unsafe.Slice((*byte)(unsafe.Pointer(valuep)), valueSz)
			b.data = append([]byte(nil), src...)
		}
		f.binds = append(f.binds, b)
		// Bind handles belong to their statement; they are not tracked for
		// leak checking.
		f.nextHandle++
		*bindpp = OCIBind(f.nextHandle)
		return OCI_SUCCESS
	}
	ociDefineByPos = func(stmtp OCIStmt, defnpp *OCIDefine, errhp OCIError, position Ub4, valuep uintptr, valueSz Sb4, dty Ub2, indp uintptr, rlenp, rcodep uintptr, mode Ub4) Sword {
		f.defines = append(f.defines, fakeDefine{
			stmt:     stmtp,
			position: position,
			dty:      dty,
			valuep:   valuep,
			valueSz:  valueSz,
			indp:     indp,
		})
		*defnpp = OCIDefine(f.alloc(OCI_HTYPE_DEFINE))
		return OCI_SUCCESS
	}
	ociParamGet = func(hndlp OCIHandle, htype Ub4, errhp OCIError, parmdpp *OCIParam, pos Ub4) Sword {
		if int(pos) > len(f.columns) {
			return OCI_ERROR
		}
		*parmdpp = OCIParam(fakeParamBase + uintptr(pos))
		return OCI_SUCCESS
	}
	ociStmtFetch2 = func(stmtp OCIStmt, errhp OCIError, nrows Ub4, orientation Ub2, fetchOffset Sb4, mode Ub4) Sword {
		if f.failFetchAt >= 0 && f.fetchPos == f.failFetchAt {
			return OCI_ERROR
		}
		if f.fetchPos >= len(f.rows) {
			return OCI_NO_DATA
		}
		row := f.rows[f.fetchPos]
		for _, d := range f.defines {
			// Defines registered on released statements point at dead
			// buffers; only the fetching statement's are written.
			if d.stmt != stmtp {
				continue
			}
			cell := row[d.position-1]
			ind := (*Sb2)(unsafe.Pointer(d.indp))
			if cell == nil {
				*ind = -1
				continue
			}
			*ind = 0
			dst := unsafe.Slice((*byte)(unsafe.Pointer(d.valuep)), d.valueSz)
			n := copy(dst, cell)
			for i := n; i < len(dst); i++ {
				dst[i] = 0
			}
		}
		f.fetchPos++
		return OCI_SUCCESS
	}

	ociErrorGet = func(hndlp OCIHandle, recordno Ub4, sqlstate uintptr, errcodep *Sb4, bufp *byte, bufsiz Ub4, htype Ub4) Sword {
		*errcodep = f.errCode
		dst := unsafe.Slice(bufp, bufsiz)
		n := copy(dst, f.errMsg)
		if n < len(dst) {
			dst[n] = 0
		}
		return OCI_SUCCESS
	}

	ociTransStart = func(svchp OCISvcCtx, errhp OCIError, timeout Ub2, flags Ub4) Sword {
		f.transStarts++
		return OCI_SUCCESS
	}
	ociTransCommit = func(svchp OCISvcCtx, errhp OCIError, flags Ub4) Sword {
		f.transCommits++
		return OCI_SUCCESS
	}
	ociTransRollback = func(svchp OCISvcCtx, errhp OCIError, flags Ub4) Sword {
		f.transRollbacks++
		return OCI_SUCCESS
	}

	return f
}

func (f *fakeOCI) alloc(htype Ub4) OCIHandle {
	f.nextHandle++
	h := OCIHandle(f.nextHandle)
	f.allocated[h] = htype
	return h
}

func (f *fakeOCI) paramColumn(h OCIHandle) *fakeColumn {
	pos := int(uintptr(h) - fakeParamBase)
	if pos < 1 || pos > len(f.columns) {
		f.t.Fatalf("bad parameter descriptor %#x", uintptr(h))
	}
	return &f.columns[pos-1]
}

// leaked returns the handles allocated but never freed.
func (f *fakeOCI) leaked() []Ub4 {
	var out []Ub4
	for h, htype := range f.allocated {
		if _, ok := f.freed[h]; !ok {
			out = append(out, htype)
		}
	}
	return out
}

func copyAttrString(p uintptr, size Ub4) string {
	if p == 0 || size == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), size))
}

const testDSN = "oci://user/password@//localhost:1521/my_database"

// mustConnect establishes a connection against the fake.
func mustConnect(t *testing.T, f *fakeOCI) *Connection {
	t.Helper()
	conn, err := Establish(testDSN)
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	return conn
}
