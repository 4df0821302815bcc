package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSporError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with SporError
	sporErr := New(ErrCodeFileNotFound, "file not found: main.go", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, sporErr)
	assert.Equal(t, originalErr, errors.Unwrap(sporErr))
	assert.True(t, errors.Is(sporErr, originalErr))
}

func TestSporError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigNotFound,
			message:  "config file not found",
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "repository error",
			code:     ErrCodeRepoNotFound,
			message:  "no .spor directory",
			expected: "[ERR_204_REPOSITORY_NOT_FOUND] no .spor directory",
		},
		{
			name:     "ambiguous id",
			code:     ErrCodeAmbiguousID,
			message:  "Ambiguous ID specification",
			expected: "[ERR_403_AMBIGUOUS_ID] Ambiguous ID specification",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestSporError_Is_MatchesByCode(t *testing.T) {
	// Given: two errors with same code
	err1 := New(ErrCodeAnchorNotFound, "anchor a not found", nil)
	err2 := New(ErrCodeAnchorNotFound, "anchor b not found", nil)

	// Then: they match by code
	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, New(ErrCodeRepoNotFound, "", nil)))
}

func TestSporError_WithDetail_AddsContext(t *testing.T) {
	err := New(ErrCodeFileNotFound, "file not found", nil).
		WithDetail("path", "/src/main.go").
		WithDetail("encoding", "utf-8")

	assert.Equal(t, "/src/main.go", err.Details["path"])
	assert.Equal(t, "utf-8", err.Details["encoding"])
}

func TestNew_DerivesCategoryFromCode(t *testing.T) {
	tests := []struct {
		code     string
		category Category
	}{
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeDecodeFailed, CategoryIO},
		{ErrCodeAnchorCorrupt, CategoryIO},
		{ErrCodeTopicOutOfRange, CategoryValidation},
		{ErrCodeRelocationFailed, CategoryInternal},
		{"bogus", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.category, New(tt.code, "msg", nil).Category)
		})
	}
}

func TestNew_DerivesSeverityAndRetryable(t *testing.T) {
	locked := New(ErrCodeRepoLocked, "locked", nil)
	assert.True(t, locked.Retryable)
	assert.Equal(t, SeverityWarning, locked.Severity)

	corrupt := New(ErrCodeAnchorCorrupt, "bad yaml", nil)
	assert.False(t, corrupt.Retryable)
	assert.True(t, IsFatal(corrupt))

	plain := New(ErrCodeInvalidInput, "bad", nil)
	assert.Equal(t, SeverityError, plain.Severity)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestHelpers_FindSporErrorThroughWrapping(t *testing.T) {
	// Given: a SporError wrapped by fmt.Errorf
	inner := New(ErrCodeRepoLocked, "locked", nil)
	outer := fmt.Errorf("adding anchor: %w", inner)

	// Then: helpers look through the chain
	assert.Equal(t, ErrCodeRepoLocked, GetCode(outer))
	assert.Equal(t, CategoryIO, GetCategory(outer))
	assert.True(t, IsRetryable(outer))
	assert.Empty(t, GetCode(errors.New("plain")))
}
