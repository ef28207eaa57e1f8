// # internal/session/transport/transport.go

// Package transport carries the session adapters: JSON-RPC over stdio,
// an HTTP API and a WebSocket push channel. Adapters never touch the
// engine; they funnel every call through a Handler.
package transport

import (
	"context"
	stderrors "errors"

	"classforge/internal/session/contracts"
)

// Handler serves one operation call with raw, not yet validated params.
type Handler func(ctx context.Context, operation string, params map[string]any) (any, error)

// Adapter is a session transport lifecycle. Start blocks until the
// context ends or the transport fails.
type Adapter interface {
	Start(ctx context.Context, handler Handler) error
	Stop() error
}

func normalizeOpError(err error) contracts.OpError {
	var opErr contracts.OpError
	if stderrors.As(err, &opErr) {
		return opErr
	}
	return contracts.OpError{Code: contracts.ErrorInternal, Message: err.Error()}
}
