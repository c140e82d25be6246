package port

import "context"

// ConvertOutput carries the normalized text and coarse metadata produced by a
// document converter.
type ConvertOutput struct {
	Markdown string
	Language string
}

// Converter abstracts document-to-markdown conversion.
type Converter interface {
	Convert(ctx context.Context, path string) (*ConvertOutput, error)
}
