package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sperrors "github.com/Aman-CERP/spor/internal/errors"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"repository not found", sperrors.New(sperrors.ErrCodeRepoNotFound, "no repo", nil), ErrCodeRepositoryNotFound},
		{"anchor not found", sperrors.New(sperrors.ErrCodeAnchorNotFound, "no anchor", nil), ErrCodeAnchorNotFound},
		{"file not found", sperrors.New(sperrors.ErrCodeFileNotFound, "gone", nil), ErrCodeFileNotFound},
		{"relocation failed", sperrors.New(sperrors.ErrCodeRelocationFailed, "lost", nil), ErrCodeRelocationFailed},
		{"alignment failed", sperrors.New(sperrors.ErrCodeAlignmentFailed, "bad", nil), ErrCodeRelocationFailed},
		{"validation category", sperrors.New(sperrors.ErrCodeAmbiguousID, "ambiguous", nil), ErrCodeInvalidParams},
		{"config category", sperrors.New(sperrors.ErrCodeConfigInvalid, "bad config", nil), ErrCodeInternalError},
		{"wrapped spor error", fmt.Errorf("outer: %w", sperrors.New(sperrors.ErrCodeFileNotFound, "gone", nil)), ErrCodeFileNotFound},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", fmt.Errorf("stop: %w", context.Canceled), ErrCodeTimeout},
		{"plain error", errors.New("boom"), ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError_PassesThroughMCPError(t *testing.T) {
	// Given: an error that is already an MCP error
	orig := NewInvalidParamsError("id parameter is required")

	// When: it is mapped again
	got := MapError(fmt.Errorf("wrapped: %w", orig))

	// Then: the original is returned
	assert.Same(t, orig, got)
}

func TestMapError_IncludesSuggestion(t *testing.T) {
	err := sperrors.New(sperrors.ErrCodeRepoNotFound, "no spor repository found", nil).
		WithSuggestion("Run 'spor init' in the project root")

	got := MapError(err)

	assert.Equal(t, "no spor repository found. Run 'spor init' in the project root", got.Message)
}

func TestMapError_InternalHidesDetails(t *testing.T) {
	got := MapError(errors.New("open /secret/path: permission denied"))

	assert.NotContains(t, got.Message, "/secret/path")
}

func TestMCPError_Error(t *testing.T) {
	err := NewMethodNotFoundError("frobnicate")

	assert.Equal(t, ErrCodeMethodNotFound, err.Code)
	assert.Contains(t, err.Error(), "frobnicate")
	assert.Contains(t, err.Error(), "-32601")
}
