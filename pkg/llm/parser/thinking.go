// Package parser separates model reasoning from answer text in LLM output.
package parser

import (
	"strings"

	"github.com/entrhq/formpilot/pkg/llm"
)

// reasoningTags are the tag names that open and close reasoning blocks.
var reasoningTags = map[string]bool{"think": true, "thinking": true, "reasoning": true}

// ThinkingParser splits streamed content into reasoning and message text.
// It keeps state across chunks so tags split between chunks are handled.
type ThinkingParser struct {
	buffer     strings.Builder
	tagBuffer  strings.Builder
	inThinking bool
	inTag      bool
}

// NewThinkingParser creates a parser in message mode.
func NewThinkingParser() *ThinkingParser {
	return &ThinkingParser{}
}

// Parse consumes one content chunk. Either result may be nil.
func (p *ThinkingParser) Parse(content string) (thinkingChunk, messageChunk *llm.StreamChunk) {
	for _, ch := range content {
		switch {
		case ch == '<':
			if p.inTag {
				// The previous '<' did not open a tag.
				thinkingChunk, messageChunk = p.appendChunk(thinkingChunk, messageChunk, p.flushTagBuffer())
			}
			thinkingChunk, messageChunk = p.appendChunk(thinkingChunk, messageChunk, p.flushBuffer())
			p.inTag = true
			p.tagBuffer.WriteRune(ch)
		case ch == '>' && p.inTag:
			p.tagBuffer.WriteRune(ch)
			tag := p.tagBuffer.String()
			p.tagBuffer.Reset()
			p.inTag = false
			if open, ok := reasoningTag(tag); ok {
				p.inThinking = open
				continue
			}
			thinkingChunk, messageChunk = p.appendChunk(thinkingChunk, messageChunk, p.createChunk(tag))
		case p.inTag:
			p.tagBuffer.WriteRune(ch)
		default:
			p.buffer.WriteRune(ch)
		}
	}
	return p.appendChunk(thinkingChunk, messageChunk, p.flushBuffer())
}

// reasoningTag reports whether tag opens or closes a reasoning block.
func reasoningTag(tag string) (open bool, ok bool) {
	name := strings.ToLower(strings.TrimSpace(tag[1 : len(tag)-1]))
	closing := strings.HasPrefix(name, "/")
	name = strings.TrimPrefix(name, "/")
	if !reasoningTags[name] {
		return false, false
	}
	return !closing, true
}

func (p *ThinkingParser) flushBuffer() *llm.StreamChunk {
	text := p.buffer.String()
	p.buffer.Reset()
	return p.createChunk(text)
}

func (p *ThinkingParser) flushTagBuffer() *llm.StreamChunk {
	text := p.tagBuffer.String()
	p.tagBuffer.Reset()
	return p.createChunk(text)
}

func (p *ThinkingParser) createChunk(text string) *llm.StreamChunk {
	if text == "" {
		return nil
	}
	typ := llm.ContentTypeMessage
	if p.inThinking {
		typ = llm.ContentTypeThinking
	}
	return &llm.StreamChunk{Content: text, Type: typ}
}

func (p *ThinkingParser) appendChunk(thinkingChunk, messageChunk, newChunk *llm.StreamChunk) (*llm.StreamChunk, *llm.StreamChunk) {
	if newChunk == nil {
		return thinkingChunk, messageChunk
	}
	if newChunk.Type == llm.ContentTypeThinking {
		if thinkingChunk == nil {
			return newChunk, messageChunk
		}
		thinkingChunk.Content += newChunk.Content
		return thinkingChunk, messageChunk
	}
	if messageChunk == nil {
		return thinkingChunk, newChunk
	}
	messageChunk.Content += newChunk.Content
	return thinkingChunk, messageChunk
}

// IsInThinking reports whether the parser is inside a reasoning block.
func (p *ThinkingParser) IsInThinking() bool {
	return p.inThinking
}

// Flush returns buffered content, including an unterminated tag.
func (p *ThinkingParser) Flush() (thinkingChunk, messageChunk *llm.StreamChunk) {
	if p.inTag {
		thinkingChunk, messageChunk = p.appendChunk(thinkingChunk, messageChunk, p.flushTagBuffer())
		p.inTag = false
	}
	return p.appendChunk(thinkingChunk, messageChunk, p.flushBuffer())
}

// Reset prepares the parser for a new stream.
func (p *ThinkingParser) Reset() {
	p.buffer.Reset()
	p.tagBuffer.Reset()
	p.inThinking = false
	p.inTag = false
}

// StripThinking removes reasoning blocks from a complete response.
func StripThinking(s string) string {
	p := NewThinkingParser()
	_, msg := p.Parse(s)
	_, tail := p.Flush()
	var b strings.Builder
	if msg != nil {
		b.WriteString(msg.Content)
	}
	if tail != nil {
		b.WriteString(tail.Content)
	}
	return b.String()
}
