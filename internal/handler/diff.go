package handler

import (
	"reflect"

	"docstore/internal/globalconst"
)

// DataUpdated reports whether applying newData on top of before would
// change stored state. Only the fields present in newData are examined, so
// a replacement that merely drops fields reads as unchanged. The
// identifier field is ignored at the top level.
func DataUpdated(before, newData map[string]any) bool {
	return mapChanged(before, newData, true)
}

func mapChanged(before, newData map[string]any, root bool) bool {
	for key, newVal := range newData {
		if root && key == globalconst.ID {
			continue
		}
		oldVal, exists := before[key]
		if !exists {
			return true
		}
		if valueChanged(oldVal, newVal) {
			return true
		}
	}
	return false
}

func valueChanged(oldVal, newVal any) bool {
	if oldMap, ok := oldVal.(map[string]any); ok {
		newMap, okNew := newVal.(map[string]any)
		if !okNew {
			return true
		}
		return mapChanged(oldMap, newMap, false)
	}

	if oldSeq, ok := oldVal.([]any); ok {
		newSeq, okNew := newVal.([]any)
		if !okNew {
			return true
		}
		if len(oldSeq) != len(newSeq) {
			return true
		}
		for i := range newSeq {
			if !shallowEqual(oldSeq[i], newSeq[i]) {
				return true
			}
		}
		return false
	}

	return !shallowEqual(oldVal, newVal)
}

// shallowEqual compares two values without descending into containers.
// Comparable values compare by value; maps and slices compare by identity.
func shallowEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Comparable() {
		return va.Equal(vb)
	}
	switch va.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func:
		return va.Pointer() == vb.Pointer()
	default:
		return false
	}
}
