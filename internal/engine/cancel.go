package engine

import (
	"context"
	"sync/atomic"
)

// CancelToken is a cooperative cancellation flag. An interruptible transfer
// polls it once per chunk; any goroutine may set it.
type CancelToken struct {
	v atomic.Int32
}

// NewCancelToken returns an unset token.
func NewCancelToken() *CancelToken { return &CancelToken{} }

// Cancel sets the token. Safe to call more than once.
func (t *CancelToken) Cancel() { t.v.Store(1) }

// Cancelled reports whether Cancel has been called.
func (t *CancelToken) Cancelled() bool { return t != nil && t.v.Load() != 0 }

type tokenKey struct{}

// WithCancelToken attaches tok to ctx. Interruptible copies run under ctx
// poll tok in addition to watching ctx itself. The engine only reads tok:
// cancelling ctx stops the operation without setting tok, so one token may
// be shared by many operations.
func WithCancelToken(ctx context.Context, tok *CancelToken) context.Context {
	return context.WithValue(ctx, tokenKey{}, tok)
}

// tokenFrom returns the caller's token attached to ctx, or nil.
func tokenFrom(ctx context.Context) *CancelToken {
	tok, _ := ctx.Value(tokenKey{}).(*CancelToken)
	return tok
}
