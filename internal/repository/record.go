package repository

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/spor/internal/anchor"
)

// recordValidate checks anchor files after decoding.
var recordValidate = validator.New()

// record is the on-disk form of an anchor, one YAML file per anchor.
type record struct {
	FilePath string         `yaml:"file_path" validate:"required"`
	Encoding string         `yaml:"encoding" validate:"required"`
	Context  contextRecord  `yaml:"context"`
	Metadata metadataRecord `yaml:"metadata"`
}

type contextRecord struct {
	Before string `yaml:"before"`
	Offset int    `yaml:"offset" validate:"gte=0"`
	Topic  string `yaml:"topic"`
	After  string `yaml:"after"`
	Width  int    `yaml:"width" validate:"gte=0"`
}

// MarshalYAML writes the context strings double-quoted. Block scalars drop a
// leading line break, which context text often has.
func (c contextRecord) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	appendPair(n, keyScalar("before"), quotedScalar(c.Before))
	appendPair(n, keyScalar("offset"), intScalar(c.Offset))
	appendPair(n, keyScalar("topic"), quotedScalar(c.Topic))
	appendPair(n, keyScalar("after"), quotedScalar(c.After))
	appendPair(n, keyScalar("width"), intScalar(c.Width))
	return n, nil
}

// metadataRecord holds free-form anchor metadata. Strings whose line breaks
// or edge whitespace YAML would not round-trip are written double-quoted.
type metadataRecord struct {
	value any
}

func (m metadataRecord) MarshalYAML() (any, error) {
	if m.value == nil {
		return nil, nil
	}
	return metadataNode(m.value)
}

func (m *metadataRecord) UnmarshalYAML(n *yaml.Node) error {
	return n.Decode(&m.value)
}

func metadataNode(v any) (*yaml.Node, error) {
	switch v := v.(type) {
	case string:
		n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
		if needsQuoting(v) {
			n.Style = yaml.DoubleQuotedStyle
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range v {
			child, err := metadataNode(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range keys {
			child, err := metadataNode(v[k])
			if err != nil {
				return nil, err
			}
			appendPair(n, keyScalar(k), child)
		}
		return n, nil
	case map[any]any:
		keys := make([]any, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
		})
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range keys {
			key, err := metadataNode(k)
			if err != nil {
				return nil, err
			}
			child, err := metadataNode(v[k])
			if err != nil {
				return nil, err
			}
			appendPair(n, key, child)
		}
		return n, nil
	default:
		n := &yaml.Node{}
		if err := n.Encode(v); err != nil {
			return nil, err
		}
		return n, nil
	}
}

func needsQuoting(s string) bool {
	return strings.ContainsAny(s, "\r\n") || strings.TrimSpace(s) != s
}

func quotedScalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s, Style: yaml.DoubleQuotedStyle}
}

func intScalar(i int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(i)}
}

func keyScalar(name string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
}

func appendPair(n, key, value *yaml.Node) {
	n.Content = append(n.Content, key, value)
}

// encodeRecord renders a relative anchor as YAML.
func encodeRecord(a *anchor.Anchor) ([]byte, error) {
	if a.Kind() != anchor.Relative {
		return nil, fmt.Errorf("%w: stored anchors must be relative", anchor.ErrInvalidPath)
	}
	ctx := a.Context()
	rec := record{
		FilePath: filepath.ToSlash(a.FilePath()),
		Encoding: a.Encoding(),
		Context: contextRecord{
			Before: ctx.Before,
			Offset: ctx.Offset,
			Topic:  ctx.Topic,
			After:  ctx.After,
			Width:  ctx.Width,
		},
		Metadata: metadataRecord{value: a.Metadata()},
	}
	return yaml.Marshal(&rec)
}

// decodeRecord parses and validates an anchor file into a relative anchor.
func decodeRecord(data []byte) (*anchor.Anchor, error) {
	var rec record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse anchor: %w", err)
	}
	if err := recordValidate.Struct(&rec); err != nil {
		return nil, fmt.Errorf("invalid anchor: %w", err)
	}
	ctx := anchor.Context{
		Before: rec.Context.Before,
		Offset: rec.Context.Offset,
		Topic:  rec.Context.Topic,
		After:  rec.Context.After,
		Width:  rec.Context.Width,
	}
	return anchor.New(anchor.Relative, filepath.FromSlash(rec.FilePath), ctx, rec.Metadata.value, rec.Encoding)
}
