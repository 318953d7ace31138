// Package oracle is the boundary to the external language-model extraction
// service. The model is consumed as a black-box text-to-structured-data
// function; its output is untrusted free text parsed behind a strict
// schema-validating boundary.
package oracle

import "context"

// Oracle produces a raw text completion for a prompt. Implementations wrap a
// concrete model host; the adapter never sees anything but text in, text out.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
