// Package errors provides structured error handling for spor.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO and storage errors (files, anchor repository)
//   - 4XX: Validation errors
//   - 5XX: Internal errors (alignment, relocation)
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, decoding and repository errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates alignment failures and unexpected errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeDecodeFailed   = "ERR_203_DECODE_FAILED"
	ErrCodeRepoNotFound   = "ERR_204_REPOSITORY_NOT_FOUND"
	ErrCodeRepoExists     = "ERR_205_REPOSITORY_EXISTS"
	ErrCodeAnchorNotFound = "ERR_206_ANCHOR_NOT_FOUND"
	ErrCodeAnchorCorrupt  = "ERR_207_ANCHOR_CORRUPT"
	ErrCodeRepoLocked     = "ERR_208_REPOSITORY_LOCKED"

	// Validation errors (400-499)
	ErrCodeInvalidInput    = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidPath     = "ERR_402_INVALID_PATH"
	ErrCodeAmbiguousID     = "ERR_403_AMBIGUOUS_ID"
	ErrCodeTopicOutOfRange = "ERR_404_TOPIC_OUT_OF_RANGE"
	ErrCodeInvalidEncoding = "ERR_405_INVALID_ENCODING"
	ErrCodeInputTooLarge   = "ERR_406_INPUT_TOO_LARGE"

	// Internal errors (500-599)
	ErrCodeInternal         = "ERR_501_INTERNAL"
	ErrCodeAlignmentFailed  = "ERR_502_ALIGNMENT_FAILED"
	ErrCodeRelocationFailed = "ERR_503_RELOCATION_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeAnchorCorrupt:
		return SeverityFatal
	case ErrCodeRepoLocked, ErrCodeRelocationFailed:
		// The caller can move on to the next anchor or try again later.
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	return code == ErrCodeRepoLocked
}
