package ai

import (
	"context"
)

// Request is a single-shot generation request.
type Request struct {
	Prompt            string
	SystemInstruction string
	// JSON asks the provider to constrain its output to a JSON document.
	JSON bool
}

// Oracle is the free-text generation capability used by the scoring components.
// Implementations make exactly one upstream call per Generate and never retry.
type Oracle interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(ctx context.Context, req Request) (string, error)

func (f OracleFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
