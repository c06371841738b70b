package admin

import "docstore/internal/globalconst"

// ServerTimestamp returns a marker the pipeline resolves to the current
// server time in unix seconds at write time.
func ServerTimestamp() map[string]any {
	return map[string]any{globalconst.FieldValueKey: globalconst.ServerTimestamp}
}

// ServerMillisTimestamp returns a marker resolved to the current server
// time in unix milliseconds.
func ServerMillisTimestamp() map[string]any {
	return map[string]any{globalconst.FieldValueKey: globalconst.ServerMillisTimestamp}
}
