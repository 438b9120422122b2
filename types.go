package goci

// OCI handle types (opaque pointers)
type OCIHandle uintptr
type OCIEnv OCIHandle
type OCIError OCIHandle
type OCISvcCtx OCIHandle
type OCIServer OCIHandle
type OCISession OCIHandle
type OCITrans OCIHandle
type OCIStmt OCIHandle
type OCIBind OCIHandle
type OCIDefine OCIHandle
type OCIParam OCIHandle

// OCI integer types
type Sword int32  // signed word, the status return type
type Sb2 int16    // null indicator cell
type Sb4 int32    // signed buffer length
type Ub2 uint16   // charset id, data type code
type Ub4 uint32   // mode, attribute, position

// Handle type identifiers
const (
	OCI_HTYPE_ENV     Ub4 = 1
	OCI_HTYPE_ERROR   Ub4 = 2
	OCI_HTYPE_SVCCTX  Ub4 = 3
	OCI_HTYPE_STMT    Ub4 = 4
	OCI_HTYPE_BIND    Ub4 = 5
	OCI_HTYPE_DEFINE  Ub4 = 6
	OCI_HTYPE_SERVER  Ub4 = 8
	OCI_HTYPE_SESSION Ub4 = 9
	OCI_HTYPE_TRANS   Ub4 = 10
)

// Descriptor type identifiers
const (
	OCI_DTYPE_PARAM Ub4 = 53
)

// Return codes
const (
	OCI_SUCCESS           Sword = 0
	OCI_SUCCESS_WITH_INFO Sword = 1
	OCI_NO_DATA           Sword = 100
	OCI_ERROR             Sword = -1
	OCI_INVALID_HANDLE    Sword = -2
	OCI_NEED_DATA         Sword = 99
	OCI_STILL_EXECUTING   Sword = -3123
	OCI_CONTINUE          Sword = -24200
)

// Modes and flags
const (
	OCI_DEFAULT    Ub4 = 0
	OCI_NTV_SYNTAX Ub4 = 1
	OCI_CRED_RDBMS Ub4 = 1
	OCI_CRED_EXT   Ub4 = 2
	OCI_FETCH_NEXT Ub2 = 2
)

// Handle and descriptor attributes
const (
	OCI_ATTR_DATA_SIZE   Ub4 = 1
	OCI_ATTR_DATA_TYPE   Ub4 = 2
	OCI_ATTR_NAME        Ub4 = 4
	OCI_ATTR_PRECISION   Ub4 = 5
	OCI_ATTR_SCALE       Ub4 = 6
	OCI_ATTR_SERVER      Ub4 = 6
	OCI_ATTR_SESSION     Ub4 = 7
	OCI_ATTR_TRANS       Ub4 = 8
	OCI_ATTR_ROW_COUNT   Ub4 = 9
	OCI_ATTR_PARAM_COUNT Ub4 = 18
	OCI_ATTR_USERNAME    Ub4 = 22
	OCI_ATTR_PASSWORD    Ub4 = 23
	OCI_ATTR_CHARSET_ID  Ub4 = 31
	OCI_ATTR_CHAR_SIZE   Ub4 = 286
)

// External data type codes (SQLT)
const (
	SQLT_CHR           Ub2 = 1
	SQLT_NUM           Ub2 = 2
	SQLT_INT           Ub2 = 3
	SQLT_FLT           Ub2 = 4
	SQLT_STR           Ub2 = 5
	SQLT_LNG           Ub2 = 8
	SQLT_VCS           Ub2 = 9
	SQLT_DAT           Ub2 = 12
	SQLT_BFLOAT        Ub2 = 21
	SQLT_BDOUBLE       Ub2 = 22
	SQLT_BIN           Ub2 = 23
	SQLT_UIN           Ub2 = 68
	SQLT_LVC           Ub2 = 94
	SQLT_AFC           Ub2 = 96
	SQLT_IBFLOAT       Ub2 = 100
	SQLT_IBDOUBLE      Ub2 = 101
	SQLT_VST           Ub2 = 155
	SQLT_ODT           Ub2 = 156
	SQLT_DATE          Ub2 = 184
	SQLT_TIMESTAMP     Ub2 = 187
	SQLT_TIMESTAMP_TZ  Ub2 = 188
	SQLT_TIMESTAMP_LTZ Ub2 = 232
)

// Maximum size of a diagnostic message, including the terminating NUL
const OCI_ERROR_MAXMSG_SIZE2 = 3072

// nullIndicator is the indicator value the server uses for SQL NULL.
const nullIndicator Sb2 = -1

// IsSuccess reports whether an OCI return code indicates success.
func IsSuccess(status Sword) bool {
	return status == OCI_SUCCESS || status == OCI_SUCCESS_WITH_INFO
}

// DataType is the normalized tag for a bound parameter or defined column.
// It abstracts the SQLT code family a buffer is exchanged with.
type DataType uint8

const (
	TypeUnknown DataType = iota
	TypeInt
	TypeFloat
	TypeDouble
	TypeChar
)

// String returns the name of the data type tag.
func (t DataType) String() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeFloat:
		return "FLOAT"
	case TypeDouble:
		return "DOUBLE"
	case TypeChar:
		return "CHAR"
	default:
		return "UNKNOWN"
	}
}

// ociType returns the SQLT code used when binding a value of this tag.
func (t DataType) ociType() Ub2 {
	switch t {
	case TypeInt:
		return SQLT_INT
	case TypeFloat:
		return SQLT_FLT
	case TypeDouble:
		return SQLT_BDOUBLE
	case TypeChar:
		return SQLT_STR
	default:
		return 0
	}
}

// dataTypeFromOCI maps a resolved SQLT code back to its normalized tag.
func dataTypeFromOCI(code Ub2) (DataType, bool) {
	switch code {
	case SQLT_INT, SQLT_UIN:
		return TypeInt, true
	case SQLT_FLT, SQLT_BFLOAT, SQLT_IBFLOAT:
		return TypeFloat, true
	case SQLT_BDOUBLE, SQLT_IBDOUBLE:
		return TypeDouble, true
	case SQLT_STR, SQLT_CHR, SQLT_VCS, SQLT_AFC:
		return TypeChar, true
	default:
		return TypeUnknown, false
	}
}

// resolveTypeAndSize maps a column's native type code, precision and scale to
// the SQLT code and buffer width used for its output define. A width of 0
// means the width must be read from the column's character-size attribute.
//
// NUMBER columns with scale 0 are fetched as native integers when their
// precision matches a machine width; anything wider falls back to the full
// 21-byte NUMBER representation. NUMBER columns with a nonzero scale are
// fetched as 8-byte floats.
func resolveTypeAndSize(code Ub2, precision int16, scale int8) (Ub2, Ub4, error) {
	switch code {
	case SQLT_INT, SQLT_UIN:
		return SQLT_INT, 8, nil
	case SQLT_NUM:
		if scale == 0 {
			switch precision {
			case 5:
				return SQLT_INT, 2, nil
			case 10:
				return SQLT_INT, 4, nil
			case 19:
				return SQLT_INT, 8, nil
			default:
				return SQLT_INT, 21, nil
			}
		}
		return SQLT_FLT, 8, nil
	case SQLT_BDOUBLE, SQLT_IBDOUBLE, SQLT_LNG:
		return SQLT_BDOUBLE, 8, nil
	case SQLT_FLT, SQLT_BFLOAT, SQLT_IBFLOAT:
		return SQLT_BFLOAT, 4, nil
	case SQLT_CHR, SQLT_VCS, SQLT_LVC, SQLT_AFC, SQLT_VST, SQLT_ODT, SQLT_DAT,
		SQLT_DATE, SQLT_TIMESTAMP, SQLT_TIMESTAMP_TZ, SQLT_TIMESTAMP_LTZ:
		return SQLT_STR, 0, nil
	default:
		return 0, 0, &UnsupportedTypeError{Code: code}
	}
}
