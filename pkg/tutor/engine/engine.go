// Package engine is the boundary to the conversation engine. The speech
// pipeline lives elsewhere; the tutoring core only ever asks it to produce a
// short utterance from an instruction.
package engine

import "context"

// ConversationEngine turns an instruction into one short reply for the user.
type ConversationEngine interface {
	GenerateReply(ctx context.Context, instructions string) (string, error)
}

// Func adapts a plain function to ConversationEngine.
type Func func(ctx context.Context, instructions string) (string, error)

func (f Func) GenerateReply(ctx context.Context, instructions string) (string, error) {
	return f(ctx, instructions)
}
