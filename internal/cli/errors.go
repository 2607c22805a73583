package cli

// Error codes for structured error responses.
// These codes are stable and can be relied upon by agents.
const (
	// Tracker errors
	ErrTrackerNotFound     = "TRACKER_NOT_FOUND"
	ErrTrackerNotSpecified = "TRACKER_NOT_SPECIFIED"
	ErrConfigInvalid       = "CONFIG_INVALID"

	// Entity errors
	ErrRecordNotFound   = "RECORD_NOT_FOUND"
	ErrNoteNotFound     = "NOTE_NOT_FOUND"
	ErrTemplateNotFound = "TEMPLATE_NOT_FOUND"

	// Validation errors
	ErrValidationFailed = "VALIDATION_FAILED"
	ErrRequiredField    = "REQUIRED_FIELD_MISSING"
	ErrInvalidValue     = "INVALID_VALUE"
	ErrFieldNotEditable = "FIELD_NOT_EDITABLE"

	// Query errors
	ErrQueryInvalid = "QUERY_INVALID"

	// File errors
	ErrParseError     = "PARSE_ERROR"
	ErrFileExists     = "FILE_EXISTS"
	ErrFileNotFound   = "FILE_NOT_FOUND"
	ErrFileWriteError = "FILE_WRITE_ERROR"

	// Database errors
	ErrDatabaseError = "DATABASE_ERROR"
	ErrIndexLocked   = "INDEX_LOCKED"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnParseSkipped  = "FILE_SKIPPED"
	WarnFieldDropped  = "FIELD_DROPPED"
	WarnIndexOutdated = "INDEX_OUTDATED"
)
