package answers

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/formpilot/pkg/llm"
	"github.com/entrhq/formpilot/pkg/llm/tokenizer"
	"github.com/entrhq/formpilot/pkg/logging"
	"github.com/entrhq/formpilot/pkg/scanner"
	"github.com/entrhq/formpilot/pkg/types"
)

// DefaultProfileBudget caps the profile text sent with a prompt, in tokens.
const DefaultProfileBudget = 2000

const systemPrompt = `You fill in web forms on behalf of a user.
You receive the form's fields as YAML and a free-text profile of the user.
Reply with a JSON array only. Each item has the keys:
  "fieldLabel": the label of the field exactly as given,
  "fieldType": the field type as given,
  "answer": the value to enter,
  "confidence": a number from 0 to 1.
For select and radio fields answer with one of the listed options.
For checkboxes answer "yes" or "no". Write dates as YYYY-MM-DD.
Skip fields the profile gives no basis for. Never invent passwords.`

// PromptField is the view of a field sent to the model.
type PromptField struct {
	Label     string   `yaml:"label"`
	Type      string   `yaml:"type"`
	Required  bool     `yaml:"required,omitempty"`
	MaxLength int      `yaml:"max_length,omitempty"`
	Hint      string   `yaml:"hint,omitempty"`
	Options   []string `yaml:"options,omitempty"`
}

// Suggester asks an LLM for answers to a field catalog.
type Suggester struct {
	provider  llm.Provider
	tokenizer *tokenizer.Tokenizer
	parser    *Parser
	logger    *logging.Logger

	// ProfileBudget is the token limit for the profile text.
	ProfileBudget int
	// Instructions are extra user guidance placed ahead of the system prompt.
	Instructions string
}

// SuggesterOption configures a Suggester.
type SuggesterOption func(*Suggester)

// WithTokenizer sets the tokenizer used to budget the profile. Without
// one, token counts are estimated.
func WithTokenizer(t *tokenizer.Tokenizer) SuggesterOption {
	return func(s *Suggester) { s.tokenizer = t }
}

// WithParser replaces the reply parser.
func WithParser(p *Parser) SuggesterOption {
	return func(s *Suggester) { s.parser = p }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) SuggesterOption {
	return func(s *Suggester) { s.logger = l }
}

// WithInstructions adds user guidance such as "use my work email".
func WithInstructions(text string) SuggesterOption {
	return func(s *Suggester) { s.Instructions = strings.TrimSpace(text) }
}

// NewSuggester creates a Suggester backed by provider.
func NewSuggester(provider llm.Provider, opts ...SuggesterOption) *Suggester {
	s := &Suggester{provider: provider, ProfileBudget: DefaultProfileBudget}
	for _, opt := range opts {
		opt(s)
	}
	if s.parser == nil {
		s.parser = NewParser()
	}
	if s.logger == nil {
		s.logger = logging.Discard("answers")
	}
	return s
}

// Suggest asks the model for answers to fields using profile as the
// source of truth.
func (s *Suggester) Suggest(ctx context.Context, fields []scanner.FieldRecord, profile string) ([]Answer, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	messages, err := s.Prompt(fields, profile)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("requesting answers for %d fields from %s (%d prompt tokens)",
		len(fields), s.provider.GetModel(), s.tokenizer.CountMessagesTokens(messages))

	reply, err := s.provider.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	list, strategy, err := s.parser.Parse(reply.Content)
	if err != nil {
		s.logger.Warnf("unparseable reply: %q", truncateForLog(reply.Content))
		return nil, err
	}
	s.logger.Infof("parsed %d answers with %s strategy", len(list), strategy)
	return list, nil
}

// Prompt builds the chat messages for fields and profile.
func (s *Suggester) Prompt(fields []scanner.FieldRecord, profile string) ([]*types.Message, error) {
	catalog, err := yaml.Marshal(PromptFields(fields))
	if err != nil {
		return nil, fmt.Errorf("failed to render fields: %w", err)
	}

	profile = strings.TrimSpace(profile)
	if s.ProfileBudget > 0 && s.tokenizer.CountTokens(profile) > s.ProfileBudget {
		profile = s.tokenizer.Truncate(profile, s.ProfileBudget)
		s.logger.Warnf("profile truncated to %d tokens", s.ProfileBudget)
	}
	if profile == "" {
		profile = "(no profile provided)"
	}

	var b strings.Builder
	b.WriteString("Form fields:\n")
	b.Write(catalog)
	b.WriteString("\nUser profile:\n")
	b.WriteString(profile)
	b.WriteString("\n")

	return []*types.Message{
		types.NewSystemMessage(s.systemPrompt()),
		types.NewUserMessage(b.String()),
	}, nil
}

func (s *Suggester) systemPrompt() string {
	if s.Instructions == "" {
		return systemPrompt
	}
	var b strings.Builder
	b.WriteString("<custom_instructions>\n")
	b.WriteString(s.Instructions)
	b.WriteString("\n</custom_instructions>\n\n")
	b.WriteString(systemPrompt)
	return b.String()
}

// PromptFields collapses a catalog into the list sent to the model. Each
// radio group appears once, labelled by its group, with its choices as
// options.
func PromptFields(fields []scanner.FieldRecord) []PromptField {
	out := make([]PromptField, 0, len(fields))
	seenGroups := make(map[string]bool)
	for _, f := range fields {
		pf := PromptField{
			Label:     f.Label,
			Type:      string(f.Type),
			Required:  f.Required,
			MaxLength: f.MaxLength,
			Hint:      f.Placeholder,
			Options:   f.Options,
		}
		if f.Type == scanner.TypeRadio {
			key := f.Name + "\x00" + f.Group
			if f.Name != "" && seenGroups[key] {
				continue
			}
			seenGroups[key] = true
			if f.Group != "" {
				pf.Label = f.Group
			}
		}
		if pf.Hint == pf.Label {
			pf.Hint = ""
		}
		out = append(out, pf)
	}
	return out
}

func truncateForLog(s string) string {
	const limit = 200
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
