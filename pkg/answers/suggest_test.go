package answers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/formpilot/pkg/llm"
	"github.com/entrhq/formpilot/pkg/scanner"
	"github.com/entrhq/formpilot/pkg/types"
)

// fakeProvider replies with a fixed message and records the request.
type fakeProvider struct {
	reply    string
	err      error
	messages []*types.Message
}

func (f *fakeProvider) StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *llm.StreamChunk, error) {
	ch := make(chan *llm.StreamChunk, 2)
	ch <- &llm.StreamChunk{Content: f.reply, Type: llm.ContentTypeMessage}
	ch <- &llm.StreamChunk{Finished: true}
	close(ch)
	return ch, nil
}

func (f *fakeProvider) Complete(ctx context.Context, messages []*types.Message) (*types.Message, error) {
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return types.NewAssistantMessage(f.reply), nil
}

func (f *fakeProvider) GetModelInfo() *types.ModelInfo { return &types.ModelInfo{Name: "fake"} }
func (f *fakeProvider) GetModel() string               { return "fake" }
func (f *fakeProvider) GetBaseURL() string             { return "" }

var catalog = []scanner.FieldRecord{
	{Label: "Full Name", Type: scanner.TypeText, Required: true, MaxLength: 80},
	{Label: "Male", Type: scanner.TypeRadio, Name: "gender", Group: "Gender", Options: []string{"Male", "Female"}},
	{Label: "Female", Type: scanner.TypeRadio, Name: "gender", Group: "Gender", Options: []string{"Male", "Female"}},
	{Label: "Country", Type: scanner.TypeSelectOne, Placeholder: "Country", Options: []string{"France", "Spain"}},
}

func TestPromptFields(t *testing.T) {
	got := PromptFields(catalog)
	require.Len(t, got, 3)
	assert.Equal(t, PromptField{Label: "Full Name", Type: "text", Required: true, MaxLength: 80}, got[0])
	assert.Equal(t, PromptField{Label: "Gender", Type: "radio", Options: []string{"Male", "Female"}}, got[1])
	assert.Equal(t, "", got[2].Hint, "hint equal to label is dropped")
}

func TestSuggester_Prompt(t *testing.T) {
	s := NewSuggester(&fakeProvider{})
	s.ProfileBudget = 5

	msgs, err := s.Prompt(catalog, strings.Repeat("profile ", 50))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, types.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "JSON array")

	user := msgs[1].Content
	require.True(t, strings.HasPrefix(user, "Form fields:\n"))
	fieldsYAML, profile, ok := strings.Cut(strings.TrimPrefix(user, "Form fields:\n"), "\nUser profile:\n")
	require.True(t, ok)

	var decoded []PromptField
	require.NoError(t, yaml.Unmarshal([]byte(fieldsYAML), &decoded))
	assert.Equal(t, PromptFields(catalog), decoded)
	assert.LessOrEqual(t, len(strings.TrimSpace(profile)), 20, "nil tokenizer budgets four bytes per token")

	msgs, err = s.Prompt(catalog, "  ")
	require.NoError(t, err)
	assert.Contains(t, msgs[1].Content, "(no profile provided)")
}

func TestSuggester_Suggest(t *testing.T) {
	provider := &fakeProvider{reply: "<think>easy</think>" +
		`[{"fieldLabel":"Full Name","fieldType":"text","answer":"Jane Doe","confidence":0.9},` +
		`{"fieldLabel":"Gender","fieldType":"radio","answer":"Female","confidence":0.7}]`}

	got, err := NewSuggester(provider).Suggest(context.Background(), catalog, "Jane Doe, she/her")
	require.NoError(t, err)
	assert.Equal(t, []Answer{
		{FieldLabel: "Full Name", FieldType: "text", Answer: "Jane Doe", Confidence: 0.9},
		{FieldLabel: "Gender", FieldType: "radio", Answer: "Female", Confidence: 0.7},
	}, got)
	require.Len(t, provider.messages, 2)
	assert.Contains(t, provider.messages[1].Content, "Jane Doe, she/her")
}

func TestSuggester_Errors(t *testing.T) {
	got, err := NewSuggester(&fakeProvider{}).Suggest(context.Background(), nil, "x")
	require.NoError(t, err)
	assert.Nil(t, got)

	boom := errors.New("boom")
	_, err = NewSuggester(&fakeProvider{err: boom}).Suggest(context.Background(), catalog, "x")
	assert.ErrorIs(t, err, boom)

	_, err = NewSuggester(&fakeProvider{reply: "no idea"}).Suggest(context.Background(), catalog, "x")
	assert.ErrorIs(t, err, ErrNoAnswers)
}

func TestSuggester_Instructions(t *testing.T) {
	msgs, err := NewSuggester(&fakeProvider{}).Prompt(catalog, "x")
	require.NoError(t, err)
	assert.NotContains(t, msgs[0].Content, "<custom_instructions>")

	msgs, err = NewSuggester(&fakeProvider{}, WithInstructions("  Use my work email.\n")).Prompt(catalog, "x")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msgs[0].Content, "<custom_instructions>\nUse my work email.\n</custom_instructions>\n\n"))
	assert.Contains(t, msgs[0].Content, "JSON array")
}
