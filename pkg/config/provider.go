package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/entrhq/formpilot/pkg/llm/openai"
)

// ErrNoAPIKey is returned when no source supplies an API key.
var ErrNoAPIKey = errors.New("API key is required: set OPENAI_API_KEY, use -api-key, or set llm.api_key in ~/.formpilot/config.json")

// ProviderSettings is the resolved provider configuration.
type ProviderSettings struct {
	Model   string
	BaseURL string
	APIKey  string
}

// ResolveProvider merges the sources with precedence
// CLI flags > environment variables > config file > defaults.
// A CLI model equal to defaultModel counts as unset so the file can override it.
func ResolveProvider(cli ProviderSettings, defaultModel string) (ProviderSettings, error) {
	out := cli

	if out.APIKey == "" {
		out.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if out.BaseURL == "" {
		out.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}

	if file := GetLLM(); file != nil {
		if cli.Model == "" || cli.Model == defaultModel {
			if m := file.GetModel(); m != "" {
				out.Model = m
			}
		}
		if out.BaseURL == "" {
			out.BaseURL = file.GetBaseURL()
		}
		if out.APIKey == "" {
			out.APIKey = file.GetAPIKey()
		}
	}

	if out.Model == "" {
		out.Model = defaultModel
	}
	if out.APIKey == "" {
		return out, ErrNoAPIKey
	}
	return out, nil
}

// BuildProvider resolves the settings and creates the OpenAI-compatible provider.
func BuildProvider(cliModel, cliBaseURL, cliAPIKey, defaultModel string) (*openai.Provider, error) {
	settings, err := ResolveProvider(ProviderSettings{
		Model:   cliModel,
		BaseURL: cliBaseURL,
		APIKey:  cliAPIKey,
	}, defaultModel)
	if err != nil {
		return nil, err
	}

	opts := []openai.ProviderOption{openai.WithModel(settings.Model)}
	if settings.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(settings.BaseURL))
	}

	provider, err := openai.NewProvider(settings.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	return provider, nil
}
