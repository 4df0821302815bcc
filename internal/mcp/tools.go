package mcp

import (
	"github.com/Aman-CERP/spor/internal/ui"
)

// ListAnchorsInput defines the input schema for the list_anchors tool.
type ListAnchorsInput struct {
	File string `json:"file,omitempty" jsonschema:"only list anchors in this file, relative to the repository root"`
}

// ListAnchorsOutput defines the output schema for the list_anchors tool.
type ListAnchorsOutput struct {
	Anchors []AnchorOutput `json:"anchors" jsonschema:"stored anchors sorted by id"`
}

// GetAnchorInput defines the input schema for the get_anchor tool.
type GetAnchorInput struct {
	ID string `json:"id" jsonschema:"anchor id or a unique prefix of it"`
}

// AddAnchorInput defines the input schema for the add_anchor tool.
type AddAnchorInput struct {
	File         string `json:"file" jsonschema:"file to anchor into, absolute or relative to the repository root"`
	Offset       int    `json:"offset" jsonschema:"character offset of the topic"`
	Width        int    `json:"width" jsonschema:"topic length in characters"`
	ContextWidth *int   `json:"context_width,omitempty" jsonschema:"characters of context kept on each side, default from configuration"`
	Encoding     string `json:"encoding,omitempty" jsonschema:"file encoding label, default utf-8"`
	Metadata     any    `json:"metadata,omitempty" jsonschema:"arbitrary data attached to the anchor"`
}

// AddAnchorOutput defines the output schema for the add_anchor tool.
type AddAnchorOutput struct {
	Anchor AnchorOutput `json:"anchor"`
}

// UpdateAnchorsInput defines the input schema for the update_anchors tool.
type UpdateAnchorsInput struct {
	DryRun bool `json:"dry_run,omitempty" jsonschema:"report new locations without saving them"`
}

// UpdateAnchorsOutput defines the output schema for the update_anchors tool.
type UpdateAnchorsOutput struct {
	Moved   int                  `json:"moved"`
	Failed  int                  `json:"failed"`
	Results []UpdateResultOutput `json:"results"`
}

// UpdateResultOutput is the outcome for one anchor.
type UpdateResultOutput struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	OldOffset int    `json:"old_offset"`
	NewOffset int    `json:"new_offset"`
	Error     string `json:"error,omitempty"`
}

// AnchorStatusInput defines the input schema for the anchor_status tool (no parameters).
type AnchorStatusInput struct{}

// AnchorStatusOutput defines the output schema for the anchor_status tool.
type AnchorStatusOutput struct {
	OutOfDate int             `json:"out_of_date"`
	Anchors   []ui.StatusView `json:"anchors"`
}

// AnchorOutput is a flattened anchor.
type AnchorOutput struct {
	ID           string `json:"id"`
	Path         string `json:"path" jsonschema:"file path relative to the repository root"`
	Encoding     string `json:"encoding"`
	Offset       int    `json:"offset" jsonschema:"character offset of the topic"`
	Width        int    `json:"width" jsonschema:"topic length in characters"`
	ContextWidth int    `json:"context_width"`
	Before       string `json:"before"`
	Topic        string `json:"topic"`
	After        string `json:"after"`
	Metadata     any    `json:"metadata,omitempty"`
}

func toAnchorOutput(v ui.AnchorView) AnchorOutput {
	return AnchorOutput{
		ID:           v.ID,
		Path:         v.Path,
		Encoding:     v.Encoding,
		Offset:       v.Context.Offset,
		Width:        v.Context.TopicLen(),
		ContextWidth: v.Context.Width,
		Before:       v.Context.Before,
		Topic:        v.Context.Topic,
		After:        v.Context.After,
		Metadata:     v.Metadata,
	}
}
