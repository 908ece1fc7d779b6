// Package snsctx carries per-invocation flags from the CLI down to the
// transports through context.
package snsctx

import "context"

type ctxIndex int

const (
	ctxIndexVerbose ctxIndex = iota
)

// IsVerbose reports whether transports should dump raw traffic.
func IsVerbose(ctx context.Context) bool {
	val, ok := ctx.Value(ctxIndexVerbose).(bool)
	return ok && val
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}
