package interpret

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config selects and configures the generator.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// New builds an Interpreter for cfg.Provider (gemini or mock).
func New(ctx context.Context, cfg Config) (*Interpreter, error) {
	var gen Generator
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "mock":
		gen = &MockGenerator{}
	case "gemini":
		g, err := NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		gen = g
	default:
		return nil, fmt.Errorf("interpret: unknown provider %q", cfg.Provider)
	}
	return NewInterpreter(gen, cfg.Timeout)
}
