package ai

import (
	"context"
	"io"
)

// Message is one chat turn sent to a completion provider.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Provider is an interchangeable hosted LLM backend. Complete returns
// the raw assistant message content; parsing and fallback happen above.
type Provider interface {
	Name() string
	Complete(ctx context.Context, messages []Message, temperature float32) (string, error)
}

// Transcriber converts audio into text. Only the OpenAI-compatible
// backend currently supports it.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// VisionAnalyzer describes an image for downstream classification.
type VisionAnalyzer interface {
	DescribeImage(ctx context.Context, prompt, imageDataURL string) (string, error)
}
