package handler

import (
	"time"

	"docstore/internal/globalconst"
)

// producers resolve sentinel markers into concrete server-side values.
// The param comes from the marker object's parameter key; current markers
// ignore it.
var producers = map[string]func(param any) any{
	globalconst.ServerTimestamp: func(any) any {
		return time.Now().Unix()
	},
	globalconst.ServerMillisTimestamp: func(any) any {
		return time.Now().UnixMilli()
	},
}

// Decode walks a payload and replaces sentinel markers with their
// server-resolved values, in place. A marker is either a bare marker
// string or an object carrying the reserved marker key with an optional
// parameter. The top-level identifier field is never rewritten; nested
// fields decode regardless of name.
func Decode(data map[string]any) {
	decodeMap(data, true)
}

func decodeMap(data map[string]any, root bool) {
	for key, val := range data {
		if root && key == globalconst.ID {
			continue
		}
		data[key] = decodeValue(val)
	}
}

func decodeValue(val any) any {
	switch v := val.(type) {
	case string:
		if produce, ok := producers[v]; ok {
			return produce(nil)
		}
		return v
	case map[string]any:
		if marker, ok := v[globalconst.FieldValueKey].(string); ok {
			if produce, found := producers[marker]; found {
				return produce(v[globalconst.FieldParamKey])
			}
			// Unknown marker objects pass through untouched.
			return v
		}
		decodeMap(v, false)
		return v
	case []any:
		for i, item := range v {
			v[i] = decodeValue(item)
		}
		return v
	default:
		return v
	}
}
