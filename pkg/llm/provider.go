// Package llm defines the provider interface the answer suggester talks to.
//
// Example usage:
//
//	provider, err := openai.NewProvider(os.Getenv("OPENAI_API_KEY"), openai.WithModel("gpt-4o-mini"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	reply, err := provider.Complete(ctx, []*types.Message{
//	    types.NewSystemMessage("You fill web forms."),
//	    types.NewUserMessage(prompt),
//	})
package llm

import (
	"context"

	"github.com/entrhq/formpilot/pkg/types"
)

// Provider is an LLM backend.
type Provider interface {
	// StreamCompletion sends messages and streams back response chunks.
	// The channel is closed when the stream ends. Stream-time failures
	// arrive as chunks with Error set; the returned error covers only
	// failures to start the request.
	StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *StreamChunk, error)

	// Complete accumulates a streamed completion into one assistant
	// message. Reasoning content is not included.
	Complete(ctx context.Context, messages []*types.Message) (*types.Message, error)

	// GetModelInfo describes the model in use.
	GetModelInfo() *types.ModelInfo

	// GetModel returns the model name.
	GetModel() string

	// GetBaseURL returns the API base URL.
	GetBaseURL() string
}
