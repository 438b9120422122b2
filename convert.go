package goci

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// bindValue converts a Go driver value into the type tag and raw buffer
// bytes Statement.Bind expects. Fixed-width values are laid out in native
// byte order, matching what the server writes back into defined buffers.
func bindValue(v driver.Value) (DataType, []byte, error) {
	switch x := v.(type) {
	case nil:
		return TypeChar, nil, nil
	case int64:
		buf := make([]byte, 8)
		binary.NativeEndian.PutUint64(buf, uint64(x))
		return TypeInt, buf, nil
	case float64:
		buf := make([]byte, 8)
		binary.NativeEndian.PutUint64(buf, math.Float64bits(x))
		return TypeDouble, buf, nil
	case bool:
		buf := make([]byte, 8)
		if x {
			binary.NativeEndian.PutUint64(buf, 1)
		}
		return TypeInt, buf, nil
	case string:
		return TypeChar, terminated([]byte(x)), nil
	case []byte:
		return TypeChar, terminated(x), nil
	case time.Time:
		return TypeChar, terminated([]byte(x.Format("2006-01-02 15:04:05"))), nil
	default:
		return TypeUnknown, nil, fmt.Errorf("goci: unsupported bind type %T", v)
	}
}

// terminated returns a copy of b with a trailing NUL, as required for
// SQLT_STR binds.
func terminated(b []byte) []byte {
	out := make([]byte, len(b)+1)
	copy(out, b)
	return out
}

// decodeValue converts one fetched column into a Go driver value according
// to its normalized type tag and buffer width.
func decodeValue(col RowColumn) (driver.Value, error) {
	if col.Null {
		return nil, nil
	}

	switch col.Type {
	case TypeInt:
		switch len(col.Data) {
		case 2:
			return int64(int16(binary.NativeEndian.Uint16(col.Data))), nil
		case 4:
			return int64(int32(binary.NativeEndian.Uint32(col.Data))), nil
		default:
			if len(col.Data) >= 8 {
				return int64(binary.NativeEndian.Uint64(col.Data)), nil
			}
			return nil, fmt.Errorf("goci: integer buffer of width %d", len(col.Data))
		}
	case TypeFloat:
		switch len(col.Data) {
		case 4:
			return float64(math.Float32frombits(binary.NativeEndian.Uint32(col.Data))), nil
		case 8:
			return math.Float64frombits(binary.NativeEndian.Uint64(col.Data)), nil
		default:
			return nil, fmt.Errorf("goci: float buffer of width %d", len(col.Data))
		}
	case TypeDouble:
		if len(col.Data) != 8 {
			return nil, fmt.Errorf("goci: double buffer of width %d", len(col.Data))
		}
		return math.Float64frombits(binary.NativeEndian.Uint64(col.Data)), nil
	case TypeChar:
		// SQLT_STR output is NUL-terminated
		for i, b := range col.Data {
			if b == 0 {
				return string(col.Data[:i]), nil
			}
		}
		return string(col.Data), nil
	default:
		return nil, fmt.Errorf("goci: cannot decode column of type %s", col.Type)
	}
}
