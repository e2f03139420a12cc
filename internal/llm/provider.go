// Package llm wraps the chat-completion APIs used for assisted work
// location search.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/nobelmap/internal/model"
)

// ErrMissingAPIKey is returned when a provider is configured without a key
var ErrMissingAPIKey = errors.New("LLM API key is required")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a single user prompt and returns the reply text
	Complete(ctx context.Context, prompt string) (*Completion, error)
}

// Completion is one model reply
type Completion struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int
}

// ConfigFromModel converts model.LLMConfig to llm.Config. An empty key is
// taken from the provider's usual environment variable.
func ConfigFromModel(c model.LLMConfig) Config {
	cfg := Config{
		Provider:  c.Provider,
		Model:     c.Model,
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		Timeout:   c.TimeoutSeconds,
		MaxTokens: c.MaxTokens,
	}
	if cfg.APIKey == "" {
		switch strings.ToLower(cfg.Provider) {
		case "openai":
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	return cfg
}

// LocationPrompt asks for the place where a laureate did the prize-winning
// work, answered as JSON
func LocationPrompt(name, category string, year int) string {
	return fmt.Sprintf(`Please search for where %s did their Nobel Prize-winning work in %s (%d).

I need the specific institution or city where they conducted the work that earned them the Nobel Prize.

For scientists: their university or lab affiliation at the time of the prize
For literature laureates: their primary residence or where they wrote their major works
For peace laureates: the organization or location of their peace work

Please provide:
1. work_location: the specific institution and/or city (e.g., "MIT, Cambridge, MA, USA" or "University of Paris, France")
2. confidence: high, medium, or low
3. source: a brief note about what you found (1-2 sentences)

Format your response as JSON:
{
  "work_location": "Institution/City, Country",
  "confidence": "high/medium/low",
  "source": "Brief explanation"
}

If you cannot find reliable information, return:
{
  "work_location": null,
  "confidence": "low",
  "source": "Could not find reliable information"
}`, name, category, year)
}

// Answer is the structured reply to LocationPrompt. An empty WorkLocation
// means the model found nothing reliable.
type Answer struct {
	WorkLocation string `json:"work_location"`
	Confidence   string `json:"confidence"`
	Source       string `json:"source"`
}

// ParseLocationAnswer extracts the JSON answer from a reply, tolerating
// markdown code fences around it
func ParseLocationAnswer(text string) (Answer, error) {
	var raw struct {
		WorkLocation *string `json:"work_location"`
		Confidence   string  `json:"confidence"`
		Source       string  `json:"source"`
	}
	if err := json.Unmarshal([]byte(stripFence(text)), &raw); err != nil {
		return Answer{}, fmt.Errorf("parse answer: %w", err)
	}

	a := Answer{
		Confidence: strings.ToLower(strings.TrimSpace(raw.Confidence)),
		Source:     strings.TrimSpace(raw.Source),
	}
	if raw.WorkLocation != nil {
		a.WorkLocation = strings.TrimSpace(*raw.WorkLocation)
	}
	if a.Confidence == "" {
		a.Confidence = "low"
	}
	return a, nil
}

func stripFence(text string) string {
	s := strings.TrimSpace(text)
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	body := s[start+3:]
	body = strings.TrimPrefix(body, "json")
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}
