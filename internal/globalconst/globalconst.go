package globalconst

// This package centralizes all constants and "magic strings" used throughout the application
// to improve maintainability and reduce errors from typos.

const (
	// =========================================================================
	// Document Fields
	// =========================================================================

	// ID is the field for the document's unique, store-assigned identifier.
	ID = "_id"

	// =========================================================================
	// Actions
	// =========================================================================

	ActionGet    = "get"
	ActionAdd    = "add"
	ActionSet    = "set"
	ActionUpdate = "update"
	ActionDelete = "delete"

	// =========================================================================
	// Response Statuses
	// =========================================================================

	StatusOk                 = "ok"
	StatusInvalidRequest     = "invalid_request"
	StatusInvalidPermissions = "invalid_permissions"
	StatusCrash              = "crash"

	// =========================================================================
	// Sentinel Markers
	// =========================================================================

	// FieldValueKey is the reserved key that marks a nested object as a
	// server-resolved placeholder.
	FieldValueKey = "docstore_field_value"
	// FieldParamKey carries the optional parameter for a marker object.
	FieldParamKey = "docstore_field_param"

	// ServerTimestamp resolves to the current server time in unix seconds.
	ServerTimestamp = "$$__$$SERVER_TIMESTAMP$$__$$"
	// ServerMillisTimestamp resolves to the current server time in unix milliseconds.
	ServerMillisTimestamp = "$$__$$SERVER_MILLIS_TIMESTAMP$$__$$"

	// =========================================================================
	// Query Keywords
	// =========================================================================

	// --- Predicate Operators ---
	OpEq  = "$eq"
	OpNe  = "$ne"
	OpLt  = "$lt"
	OpLte = "$lte"
	OpGt  = "$gt"
	OpGte = "$gte"
	OpIn  = "$in"
	OpNin = "$nin"

	// =========================================================================
	// Persistence Keywords
	// =========================================================================

	// CollectionsDirName is the root directory name for collection data.
	CollectionsDirName = "collections"
	// DBFileExtension is the file extension for database data files.
	DBFileExtension = ".dsdb"
	// TempFileSuffix is the suffix added to temporary files during writes.
	TempFileSuffix = ".tmp"
)
