package errors

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// FormatForCLI renders err for the terminal: the message, an optional hint
// and the code. With verbose set, details and the underlying cause follow.
func FormatForCLI(err error, verbose bool) string {
	if err == nil {
		return ""
	}

	se, ok := As(err)
	if !ok {
		se = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", se.Message)
	if se.Suggestion != "" {
		fmt.Fprintf(&sb, "  Hint: %s\n", se.Suggestion)
	}
	fmt.Fprintf(&sb, "  Code: %s\n", se.Code)

	if verbose {
		for _, k := range sortedKeys(se.Details) {
			fmt.Fprintf(&sb, "  %s: %s\n", k, se.Details[k])
		}
		if se.Cause != nil && se.Cause.Error() != se.Message {
			fmt.Fprintf(&sb, "  Cause: %s\n", se.Cause)
		}
	}
	return sb.String()
}

// jsonError is printed in place of a command's JSON output when it fails.
type jsonError struct {
	Error struct {
		Code       string            `json:"code"`
		Message    string            `json:"message"`
		Category   string            `json:"category"`
		Details    map[string]string `json:"details,omitempty"`
		Suggestion string            `json:"suggestion,omitempty"`
		Retryable  bool              `json:"retryable"`
	} `json:"error"`
}

// FormatJSON renders err as {"error": {...}} for commands run with --json.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	se, ok := As(err)
	if !ok {
		se = Wrap(ErrCodeInternal, err)
	}

	var je jsonError
	je.Error.Code = se.Code
	je.Error.Message = se.Message
	je.Error.Category = string(se.Category)
	je.Error.Details = se.Details
	je.Error.Suggestion = se.Suggestion
	je.Error.Retryable = se.Retryable
	return json.Marshal(je)
}

// LogAttr returns err as a single "error" attribute. A SporError becomes a
// group carrying its code and details; anything else is its message.
func LogAttr(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	se, ok := As(err)
	if !ok {
		return slog.String("error", err.Error())
	}

	attrs := []any{
		slog.String("code", se.Code),
		slog.String("message", se.Message),
		slog.Bool("retryable", se.Retryable),
	}
	if se.Cause != nil {
		attrs = append(attrs, slog.String("cause", se.Cause.Error()))
	}
	for _, k := range sortedKeys(se.Details) {
		attrs = append(attrs, slog.String(k, se.Details[k]))
	}
	return slog.Group("error", attrs...)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
