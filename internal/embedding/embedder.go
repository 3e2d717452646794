// Package embedding provides the text-to-vector provider boundary and the
// vector primitives the probes are built on. Backends: Google GenAI (cloud)
// and Ollama (local).
package embedding

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"math"
)

// #endregion imports

// #region embedder-interface

// Embedder abstracts the embedding provider so calibration and measurement
// can be tested without a live model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// #endregion embedder-interface

// #region config

// Config selects and parameterizes an embedding backend.
type Config struct {
	Provider string // "genai" | "ollama"

	OllamaEndpoint string
	OllamaModel    string

	GenAIAPIKey string
	GenAIModel  string
}

// DefaultConfig returns sensible defaults (local Ollama).
func DefaultConfig() Config {
	return Config{
		Provider:       "ollama",
		OllamaEndpoint: "http://localhost:11434",
		OllamaModel:    "embeddinggemma",
		GenAIModel:     "gemini-embedding-001",
	}
}

// #endregion config

// #region factory

// New creates an embedding backend from configuration.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaEngine(cfg.OllamaEndpoint, cfg.OllamaModel)
	case "genai":
		return NewGenAIEngine(cfg.GenAIAPIKey, cfg.GenAIModel)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use 'ollama' or 'genai')", cfg.Provider)
	}
}

// #endregion factory

// #region vector-math

// ErrZeroVector reports an embedding with zero Euclidean norm. A zero vector
// cannot be normalized and indicates a broken provider.
var ErrZeroVector = errors.New("embedding has zero norm")

// Normalize divides a vector by its L2 norm, returning a unit vector.
func Normalize(vec []float32) ([]float32, error) {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return nil, ErrZeroVector
	}
	out := make([]float32, len(vec))
	for i, x := range vec {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

// Cosine computes cosine similarity as a dot product. Both inputs must be
// unit-normalized; mismatched lengths score over the shorter prefix.
func Cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot)
}

// #endregion vector-math
