// Package tokenizer counts and trims prompt text in model tokens.
package tokenizer

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/entrhq/formpilot/pkg/types"
)

// Encoding is the BPE used for counting. It matches the GPT-4 family.
const Encoding = "cl100k_base"

// Per-message framing overhead of the chat format.
const (
	tokensPerMessage = 4
	tokensPerReply   = 3
)

// Tokenizer counts tokens with tiktoken. A nil *Tokenizer estimates from
// byte length, so callers can keep going when the encoding cannot load.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New loads the encoding. It may need network access on first use.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", Encoding, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// Estimate approximates a token count at four bytes per token.
func Estimate(text string) int {
	return (len(text) + 3) / 4
}

// CountTokens returns the number of tokens in text.
func (t *Tokenizer) CountTokens(text string) int {
	if t == nil || t.enc == nil {
		return Estimate(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// CountMessagesTokens counts a chat request including message framing.
func (t *Tokenizer) CountMessagesTokens(messages []*types.Message) int {
	total := tokensPerReply
	for _, m := range messages {
		total += tokensPerMessage + t.CountTokens(string(m.Role)) + t.CountTokens(m.Content)
	}
	return total
}

// Truncate returns the longest prefix of text that fits in max tokens.
func (t *Tokenizer) Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if t == nil || t.enc == nil {
		limit := max * 4
		if len(text) <= limit {
			return text
		}
		for limit > 0 && !utf8.RuneStart(text[limit]) {
			limit--
		}
		return text[:limit]
	}

	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= max {
		return text
	}
	return t.enc.Decode(tokens[:max])
}
