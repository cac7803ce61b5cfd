package notify

import (
	"context"
	"fmt"
	"strings"
)

// TokenKind discriminates the message-body token stream
type TokenKind string

const (
	// KindText emits the token's literal text
	KindText TokenKind = "text"

	// KindNewline emits a line break
	KindNewline TokenKind = "newline"

	// KindVariable emits the value bound to Key in the render data
	KindVariable TokenKind = "variable"

	// KindLoop renders Body once per element of the slice bound to Key,
	// binding each element under "item".
	KindLoop TokenKind = "loop"
)

// Token is one unit of a message template. Message bodies are assembled from
// a flat token stream rather than a template language, so templates stay
// data (storable, diffable) instead of code.
type Token struct {
	Kind TokenKind
	Text string  // KindText
	Key  string  // KindVariable, KindLoop
	Body []Token // KindLoop
}

// Render assembles a message body from the token stream and binding data.
// Unknown variables render empty; a loop over a non-slice renders nothing.
func Render(tokens []Token, data map[string]any) string {
	var b strings.Builder
	renderInto(&b, tokens, data)
	return b.String()
}

func renderInto(b *strings.Builder, tokens []Token, data map[string]any) {
	for _, tok := range tokens {
		switch tok.Kind {
		case KindText:
			b.WriteString(tok.Text)
		case KindNewline:
			b.WriteString("\n")
		case KindVariable:
			if v, ok := data[tok.Key]; ok {
				fmt.Fprintf(b, "%v", v)
			}
		case KindLoop:
			items, ok := data[tok.Key].([]map[string]any)
			if !ok {
				continue
			}
			for _, item := range items {
				scope := make(map[string]any, len(data)+len(item))
				for k, v := range data {
					scope[k] = v
				}
				for k, v := range item {
					scope[k] = v
				}
				renderInto(b, tok.Body, scope)
			}
		}
	}
}

// Sender delivers a rendered message body. Delivery transports live outside
// this repository; the lifecycle service treats send failures as
// fire-and-forget (logged, never propagated).
type Sender interface {
	Send(ctx context.Context, candidateID, body string) error
}
