package llm

// ContentType separates model reasoning from the answer text in a stream.
type ContentType string

const (
	ContentTypeMessage  ContentType = "message"
	ContentTypeThinking ContentType = "thinking"
)

// StreamChunk is one piece of a streamed completion.
type StreamChunk struct {
	Role     string
	Content  string
	Type     ContentType
	Finished bool
	Error    error
}

// IsError reports whether the chunk carries a stream error.
func (c *StreamChunk) IsError() bool { return c.Error != nil }

// IsThinking reports whether the chunk is reasoning content.
func (c *StreamChunk) IsThinking() bool { return c.Type == ContentTypeThinking }
