package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI_IncludesHintAndCode(t *testing.T) {
	// Given: an error with a suggestion
	err := New(ErrCodeAmbiguousID, "Ambiguous ID specification", nil).
		WithSuggestion("Use a longer id prefix")

	// When: formatting for CLI
	result := FormatForCLI(err, false)

	// Then: all three lines are present
	assert.Equal(t, "Error: Ambiguous ID specification\n"+
		"  Hint: Use a longer id prefix\n"+
		"  Code: ERR_403_AMBIGUOUS_ID\n", result)
}

func TestFormatForCLI_VerboseAddsDetailsAndCause(t *testing.T) {
	err := New(ErrCodeDecodeFailed, "cannot decode notes.txt", errors.New("invalid utf-8 at byte 3")).
		WithDetail("path", "notes.txt").
		WithDetail("encoding", "utf-8")

	quiet := FormatForCLI(err, false)
	verbose := FormatForCLI(err, true)

	assert.NotContains(t, quiet, "Cause")
	assert.Contains(t, verbose, "  encoding: utf-8\n  path: notes.txt\n")
	assert.Contains(t, verbose, "  Cause: invalid utf-8 at byte 3\n")
}

func TestFormatForCLI_VerboseSkipsCauseEqualToMessage(t *testing.T) {
	err := Wrap(ErrCodeRelocationFailed, errors.New("no alignments"))

	result := FormatForCLI(err, true)

	assert.NotContains(t, result, "Cause")
}

func TestFormatForCLI_WrapsStandardError(t *testing.T) {
	result := FormatForCLI(errors.New("boom"), false)

	assert.Contains(t, result, "Error: boom")
	assert.Contains(t, result, ErrCodeInternal)
}

func TestFormatForCLI_Nil(t *testing.T) {
	assert.Empty(t, FormatForCLI(nil, true))
}

func TestFormatJSON_WrapsErrorObject(t *testing.T) {
	// Given: an error with details and a suggestion
	err := New(ErrCodeAnchorNotFound, "no anchor with id abc", nil).
		WithDetail("prefix", "abc").
		WithSuggestion("Run 'spor list'")

	// When: formatting as JSON
	data, fmtErr := FormatJSON(err)
	require.NoError(t, fmtErr)

	// Then: the fields sit under "error"
	var parsed map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	obj := parsed["error"]
	assert.Equal(t, ErrCodeAnchorNotFound, obj["code"])
	assert.Equal(t, "no anchor with id abc", obj["message"])
	assert.Equal(t, "Run 'spor list'", obj["suggestion"])
	assert.Equal(t, false, obj["retryable"])
	assert.Equal(t, map[string]any{"prefix": "abc"}, obj["details"])
}

func TestFormatJSON_StandardError(t *testing.T) {
	data, err := FormatJSON(errors.New("boom"))
	require.NoError(t, err)

	assert.Contains(t, string(data), `"code":"`+ErrCodeInternal+`"`)
	assert.Contains(t, string(data), `"message":"boom"`)
}

func TestLogAttr_GroupsSporError(t *testing.T) {
	// Given: a logger writing JSON
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	err := New(ErrCodeRepoLocked, "repository is locked", nil).WithDetail("lock", "/r/.spor/.lock")

	// When: logging the error attribute
	logger.Warn("update failed", LogAttr(err))

	// Then: the error appears as a nested object
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	obj := rec["error"].(map[string]any)
	assert.Equal(t, ErrCodeRepoLocked, obj["code"])
	assert.Equal(t, true, obj["retryable"])
	assert.Equal(t, "/r/.spor/.lock", obj["lock"])
}

func TestLogAttr_PlainError(t *testing.T) {
	attr := LogAttr(errors.New("boom"))

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, "boom", attr.Value.String())
}
