package camera

import (
	"fmt"
	"strconv"
	"strings"
)

// Config is the camera configuration document. Keys are the recognised
// field names; values are already coerced to the field's declared type.
type Config map[string]any

// fieldKind is the declared scalar type of a recognised field.
type fieldKind int

const (
	kindFloat fieldKind = iota
	kindInt
	kindBool
)

// fieldSpec binds a recognised field name to its kind.
type fieldSpec struct {
	name string
	kind fieldKind
}

// fieldTable lists every recognised configuration field. Update walks
// this table; anything not listed here is ignored.
var fieldTable = []fieldSpec{
	{"Brightness", kindFloat},
	{"Saturation", kindFloat},
	{"Sharpness", kindFloat},
	{"ExposureValue", kindFloat},
	{"LensPosition", kindFloat},
	{"ExposureTime", kindInt},
	{"AfMode", kindInt},
	{"HdrMode", kindInt},
	{"AeEnable", kindBool},
}

// coerce converts a raw JSON-decoded value to the field's declared
// type. JSON numbers arrive as float64; strings are parsed so clients
// that quote numeric values still work.
func coerce(kind fieldKind, raw any) (any, error) {
	switch kind {
	case kindFloat:
		return coerceFloat(raw)
	case kindInt:
		return coerceInt(raw)
	case kindBool:
		return coerceBool(raw)
	default:
		return nil, fmt.Errorf("unknown field kind %d", kind)
	}
}

func coerceFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", raw)
	}
}

func coerceInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", raw)
	}
}

func coerceBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("%q is not a boolean", v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("unexpected type %T", raw)
	}
}

// coercePatch walks the field table and coerces every recognised field
// present in raw. Unrecognised keys are ignored. A coercion failure on
// any recognised key fails the whole patch.
func coercePatch(raw map[string]any) (Config, error) {
	patch := Config{}
	for _, spec := range fieldTable {
		value, ok := raw[spec.name]
		if !ok {
			continue
		}
		coerced, err := coerce(spec.kind, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFieldValue, spec.name, err)
		}
		patch[spec.name] = coerced
	}
	return patch, nil
}
