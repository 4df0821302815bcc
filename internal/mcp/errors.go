// Package mcp exposes spor anchors to AI clients over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	sperrors "github.com/Aman-CERP/spor/internal/errors"
)

// Custom MCP error codes for spor.
const (
	// ErrCodeRepositoryNotFound indicates no .spor directory was found.
	ErrCodeRepositoryNotFound = -32001

	// ErrCodeAnchorNotFound indicates no anchor matches the requested id.
	ErrCodeAnchorNotFound = -32002

	// ErrCodeTimeout indicates the request timed out or was cancelled.
	ErrCodeTimeout = -32003

	// ErrCodeFileNotFound indicates an anchored file no longer exists.
	ErrCodeFileNotFound = -32004

	// ErrCodeRelocationFailed indicates an anchor could not be relocated.
	ErrCodeRelocationFailed = -32005

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}
	if se, ok := sperrors.As(err); ok {
		return mapSporError(se)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("Tool '%s' not found.", name)}
}

func mapSporError(se *sperrors.SporError) *MCPError {
	message := se.Message
	if se.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", se.Message, se.Suggestion)
	}

	switch se.Code {
	case sperrors.ErrCodeRepoNotFound:
		return &MCPError{Code: ErrCodeRepositoryNotFound, Message: message}
	case sperrors.ErrCodeAnchorNotFound:
		return &MCPError{Code: ErrCodeAnchorNotFound, Message: message}
	case sperrors.ErrCodeFileNotFound:
		return &MCPError{Code: ErrCodeFileNotFound, Message: message}
	case sperrors.ErrCodeRelocationFailed, sperrors.ErrCodeAlignmentFailed:
		return &MCPError{Code: ErrCodeRelocationFailed, Message: message}
	}

	switch se.Category {
	case sperrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
