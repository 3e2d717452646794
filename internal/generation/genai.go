// Package generation provides the downstream text-generation call the valve
// wraps in the shipped binaries. The valve itself is agnostic: anything
// matching valve.Downstream can sit behind it.
package generation

// #region imports
import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/danielpatrickdp/grounding-valve/internal/valve"
)

// #endregion imports

// #region client

// GenAIGenerator calls the Gemini API for text generation.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

// NewGenAIGenerator creates a generation client.
func NewGenAIGenerator(apiKey, model string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai api key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIGenerator{client: client, model: model}, nil
}

// #endregion client

// #region generate

// Generate sends the prompt and returns the response text.
func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return resp.Text(), nil
}

// Downstream adapts the generator to the valve's downstream signature.
func (g *GenAIGenerator) Downstream() valve.Downstream {
	return g.Generate
}

// #endregion generate
