// Package openai provides an OpenAI-compatible chat completion provider.
//
// Example usage:
//
//	provider, err := openai.NewProvider("", openai.WithModel("gpt-4o-mini"))
//	if err != nil {
//	    return err
//	}
//	stream, err := provider.StreamCompletion(ctx, messages)
//	if err != nil {
//	    return err
//	}
//	for chunk := range stream {
//	    if chunk.IsError() {
//	        return chunk.Error
//	    }
//	    fmt.Print(chunk.Content)
//	}
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/openai/openai-go"

	"github.com/entrhq/formpilot/pkg/llm"
	"github.com/entrhq/formpilot/pkg/llm/parser"
	"github.com/entrhq/formpilot/pkg/types"
)

const (
	// DefaultBaseURL is the default OpenAI API base URL.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
)

// ErrMissingAPIKey is returned when no key is given or found in the environment.
var ErrMissingAPIKey = errors.New("OpenAI API key is required (provide via parameter or OPENAI_API_KEY environment variable)")

// Provider talks to an OpenAI-compatible chat completions endpoint.
type Provider struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature *float64
	modelInfo   *types.ModelInfo
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model to use for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithBaseURL sets a custom base URL for OpenAI-compatible APIs.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		if baseURL != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) { p.httpClient = c }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ProviderOption {
	return func(p *Provider) { p.temperature = &t }
}

// NewProvider creates a provider. An empty apiKey falls back to
// OPENAI_API_KEY, and OPENAI_BASE_URL is used when no base URL option is set.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	p := &Provider{
		model:      DefaultModel,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.baseURL == DefaultBaseURL {
		if env := os.Getenv("OPENAI_BASE_URL"); env != "" {
			p.baseURL = strings.TrimRight(env, "/")
		}
	}

	p.modelInfo = &types.ModelInfo{
		Provider:          "openai",
		Name:              p.model,
		SupportsStreaming: true,
		MaxTokens:         8192,
		Metadata:          make(map[string]interface{}),
	}
	if p.baseURL != DefaultBaseURL {
		p.modelInfo.Metadata["base_url"] = p.baseURL
	}
	return p, nil
}

// StreamCompletion sends messages and streams back response chunks. The
// SSE stream is read directly so that compatible servers emitting comments
// or keep-alives still work.
func (p *Provider) StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *llm.StreamChunk, error) {
	resp, err := p.sendStreamRequest(ctx, messages)
	if err != nil {
		return nil, err
	}

	chunks := make(chan *llm.StreamChunk, 10)
	go p.processStreamResponse(ctx, resp, chunks)
	return chunks, nil
}

func (p *Provider) sendStreamRequest(ctx context.Context, messages []*types.Message) (*http.Response, error) {
	reqBody := map[string]interface{}{
		"model":    p.model,
		"messages": convertToOpenAIMessages(messages),
		"stream":   true,
	}
	if p.temperature != nil {
		reqBody["temperature"] = *p.temperature
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("API request failed with status %d (failed to read error body: %w)", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

// sseChunk is the subset of a streamed chat completion chunk we read.
type sseChunk struct {
	Choices []struct {
		Delta struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (p *Provider) processStreamResponse(ctx context.Context, resp *http.Response, chunks chan<- *llm.StreamChunk) {
	defer close(chunks)
	defer resp.Body.Close()

	s := &streamState{ctx: ctx, chunks: chunks, thinking: parser.NewThinkingParser()}
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := sc.Text()
		if !isDataLine(line) {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			s.finish()
			return
		}
		if !s.handle(data) {
			return
		}
	}

	if !s.flush() {
		return
	}
	if err := sc.Err(); err != nil {
		s.send(&llm.StreamChunk{Error: fmt.Errorf("stream read error: %w", err)})
	}
}

// isDataLine reports whether line is an SSE data field. Comments and other
// fields are ignored.
func isDataLine(line string) bool {
	return strings.HasPrefix(line, "data:")
}

type streamState struct {
	ctx      context.Context
	chunks   chan<- *llm.StreamChunk
	thinking *parser.ThinkingParser
	role     string
	roleSent bool
	finished bool
}

// send delivers c unless the context is done. It reports whether the
// stream should continue.
func (s *streamState) send(c *llm.StreamChunk) bool {
	if c == nil {
		return true
	}
	select {
	case s.chunks <- c:
		return true
	case <-s.ctx.Done():
		select {
		case s.chunks <- &llm.StreamChunk{Error: s.ctx.Err()}:
		default:
		}
		return false
	}
}

func (s *streamState) flush() bool {
	thinking, message := s.thinking.Flush()
	return s.send(thinking) && s.send(message)
}

// finish flushes buffered content and sends the final chunk once.
func (s *streamState) finish() bool {
	if s.finished {
		return true
	}
	s.finished = true
	return s.flush() && s.send(&llm.StreamChunk{Finished: true})
}

func (s *streamState) handle(data string) bool {
	var chunk sseChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil || len(chunk.Choices) == 0 {
		return true
	}
	choice := chunk.Choices[0]

	if !s.roleSent && choice.Delta.Role != "" {
		s.role = choice.Delta.Role
		s.roleSent = true
		if !s.send(&llm.StreamChunk{Role: s.role}) {
			return false
		}
	}

	if choice.Delta.Content != "" {
		thinking, message := s.thinking.Parse(choice.Delta.Content)
		if !s.send(thinking) || !s.send(message) {
			return false
		}
	}

	if choice.FinishReason != nil && *choice.FinishReason != "" {
		return s.finish()
	}
	return true
}

// Complete accumulates the message content of a streamed completion.
func (p *Provider) Complete(ctx context.Context, messages []*types.Message) (*types.Message, error) {
	stream, err := p.StreamCompletion(ctx, messages)
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	role := string(types.RoleAssistant)
	for chunk := range stream {
		if chunk.IsError() {
			return nil, chunk.Error
		}
		if chunk.Role != "" {
			role = chunk.Role
		}
		if !chunk.IsThinking() {
			content.WriteString(chunk.Content)
		}
	}

	return &types.Message{Role: types.MessageRole(role), Content: content.String()}, nil
}

// GetModelInfo returns information about the model being used.
func (p *Provider) GetModelInfo() *types.ModelInfo {
	return p.modelInfo
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}

// GetBaseURL returns the base URL being used.
func (p *Provider) GetBaseURL() string {
	return p.baseURL
}

// convertToOpenAIMessages converts messages to the OpenAI request form.
// Unknown roles are sent as user messages.
func convertToOpenAIMessages(messages []*types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case types.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
