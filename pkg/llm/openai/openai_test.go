package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/formpilot/pkg/llm"
	"github.com/entrhq/formpilot/pkg/types"
)

func sseServer(t *testing.T, deltas []string, record func(map[string]interface{})) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if record != nil {
			record(body)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"role":"assistant"}}]}`+"\n\n")
		for _, d := range deltas {
			payload, _ := json.Marshal(map[string]interface{}{
				"choices": []map[string]interface{}{{"delta": map[string]string{"content": d}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
		fmt.Fprint(w, "data: not json\n\n")
		fmt.Fprint(w, `data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func newTestProvider(t *testing.T, url string, opts ...ProviderOption) *Provider {
	t.Helper()
	p, err := NewProvider("test-key", append([]ProviderOption{WithBaseURL(url)}, opts...)...)
	require.NoError(t, err)
	return p
}

func TestNewProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "")

	_, err := NewProvider("")
	require.ErrorIs(t, err, ErrMissingAPIKey)

	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1/")
	p, err := NewProvider("", WithModel("llama3"))
	require.NoError(t, err)
	assert.Equal(t, "llama3", p.GetModel())
	assert.Equal(t, "http://localhost:11434/v1", p.GetBaseURL())
	assert.Equal(t, "llama3", p.GetModelInfo().Name)
	assert.Equal(t, "http://localhost:11434/v1", p.GetModelInfo().Metadata["base_url"])

	p, err = NewProvider("key", WithModel(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, p.GetModel())
}

func TestStreamCompletion(t *testing.T) {
	var body map[string]interface{}
	srv := sseServer(t, []string{"<think>lab", "els</think>Name", ": Jane"}, func(b map[string]interface{}) { body = b })
	defer srv.Close()

	p := newTestProvider(t, srv.URL, WithModel("gpt-test"), WithTemperature(0.2))
	stream, err := p.StreamCompletion(context.Background(), []*types.Message{
		types.NewSystemMessage("sys"),
		types.NewUserMessage("hi"),
	})
	require.NoError(t, err)

	var thinking, message strings.Builder
	var roles []string
	finished := 0
	for c := range stream {
		require.NoError(t, c.Error)
		if c.Role != "" {
			roles = append(roles, c.Role)
		}
		if c.Finished {
			finished++
		}
		if c.Type == llm.ContentTypeThinking {
			thinking.WriteString(c.Content)
		} else {
			message.WriteString(c.Content)
		}
	}

	assert.Equal(t, "labels", thinking.String())
	assert.Equal(t, "Name: Jane", message.String())
	assert.Equal(t, []string{"assistant"}, roles)
	assert.Equal(t, 1, finished)

	assert.Equal(t, "gpt-test", body["model"])
	assert.Equal(t, true, body["stream"])
	assert.InDelta(t, 0.2, body["temperature"], 1e-9)
	msgs, ok := body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
	assert.Equal(t, "user", msgs[1].(map[string]interface{})["role"])
}

func TestComplete(t *testing.T) {
	srv := sseServer(t, []string{"<think>x</think>", "[", "]"}, nil)
	defer srv.Close()

	msg, err := newTestProvider(t, srv.URL).Complete(context.Background(), []*types.Message{types.NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, types.RoleAssistant, msg.Role)
	assert.Equal(t, "[]", msg.Content)
}

func TestStreamCompletion_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestProvider(t, srv.URL).StreamCompletion(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "bad key")
}

func TestConvertToOpenAIMessages(t *testing.T) {
	out := convertToOpenAIMessages([]*types.Message{
		types.NewSystemMessage("s"),
		types.NewAssistantMessage("a"),
		{Role: "tool", Content: "t"},
	})
	require.Len(t, out, 3)
	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"role":"system"`)
	assert.Contains(t, string(data), `"role":"assistant"`)
	assert.Contains(t, string(data), `"role":"user"`)
}
