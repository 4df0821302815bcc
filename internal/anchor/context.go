package anchor

import (
	"errors"
	"fmt"
)

// ErrTopicOutOfRange is returned when the text is too short for the requested topic.
var ErrTopicOutOfRange = errors.New("unable to read topic")

// Context is an immutable snapshot of a topic and the text around it.
//
// Offset and lengths count Unicode characters, not bytes. Before and After
// hold at most Width characters each and are shorter at the edges of the text.
type Context struct {
	Before string `yaml:"before" json:"before"`
	Offset int    `yaml:"offset" json:"offset"`
	Topic  string `yaml:"topic" json:"topic"`
	After  string `yaml:"after" json:"after"`
	Width  int    `yaml:"width" json:"width"`
}

// NewContext cuts a Context out of text.
//
// The topic is the width characters starting at offset. Up to contextWidth
// characters on either side become Before and After.
func NewContext(text string, offset, width, contextWidth int) (Context, error) {
	if offset < 0 || width < 0 || contextWidth < 0 {
		return Context{}, fmt.Errorf("%w: negative offset %d, width %d or context width %d",
			ErrTopicOutOfRange, offset, width, contextWidth)
	}

	runes := []rune(text)
	if offset+width > len(runes) {
		return Context{}, fmt.Errorf("%w: [%d, %d) exceeds text length %d",
			ErrTopicOutOfRange, offset, offset+width, len(runes))
	}

	beforeStart := max(0, offset-contextWidth)
	afterStart := offset + width
	afterEnd := min(len(runes), afterStart+contextWidth)

	return Context{
		Before: string(runes[beforeStart:offset]),
		Offset: offset,
		Topic:  string(runes[offset:afterStart]),
		After:  string(runes[afterStart:afterEnd]),
		Width:  contextWidth,
	}, nil
}

// FullText returns Before, Topic and After concatenated.
func (c Context) FullText() string {
	return c.Before + c.Topic + c.After
}

// TopicLen returns the topic length in characters.
func (c Context) TopicLen() int {
	return len([]rune(c.Topic))
}

// BeforeLen returns the length of Before in characters.
func (c Context) BeforeLen() int {
	return len([]rune(c.Before))
}
