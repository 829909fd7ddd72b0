package message

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/hazyhaar/readstyle/idgen"
	"github.com/hazyhaar/readstyle/kit"
)

// Middleware decorates the handler of one message type.
type Middleware func(t Type, next Handler) Handler

// Chain composes mws; the first is outermost.
func Chain(mws ...Middleware) Middleware {
	return func(t Type, next Handler) Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](t, next)
		}
		return next
	}
}

// RequestID tags the context with a fresh message ID unless one is set.
func RequestID(gen idgen.Generator) Middleware {
	return func(_ Type, next Handler) Handler {
		return func(ctx context.Context, req Request) (Response, error) {
			if kit.GetRequestID(ctx) == "" {
				ctx = kit.WithRequestID(ctx, gen())
			}
			return next(ctx, req)
		}
	}
}

// Logging logs each message with its outcome and duration.
func Logging(logger *slog.Logger) Middleware {
	return func(t Type, next Handler) Handler {
		return func(ctx context.Context, req Request) (Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			attrs := []any{
				"type", t,
				"request_id", kit.GetRequestID(ctx),
				"transport", kit.GetTransport(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if addr := kit.GetRemoteAddr(ctx); addr != "" {
				attrs = append(attrs, "remote_addr", addr)
			}
			if err != nil {
				logger.WarnContext(ctx, "message: failed", append(attrs, "error", err)...)
			} else {
				logger.DebugContext(ctx, "message: ok", append(attrs, "success", resp.Success)...)
			}
			return resp, err
		}
	}
}

// Recovery turns handler panics into ErrPanic.
func Recovery(logger *slog.Logger) Middleware {
	return func(t Type, next Handler) Handler {
		return func(ctx context.Context, req Request) (resp Response, err error) {
			defer func() {
				if v := recover(); v != nil {
					logger.ErrorContext(ctx, "message: handler panic",
						"type", t, "panic", v, "stack", string(debug.Stack()))
					resp, err = Response{}, &ErrPanic{Type: t, Value: v}
				}
			}()
			return next(ctx, req)
		}
	}
}

// Observer receives the outcome of every message. Metrics implement it.
type Observer interface {
	ObserveMessage(t Type, outcome string, d time.Duration)
}

// Outcomes reported to an Observer.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
	OutcomeError  = "error"
)

// Observe reports each message to o: "ok" when Success is set, "failed" for
// a handled refusal, "error" when the handler returned an error.
func Observe(o Observer) Middleware {
	return func(t Type, next Handler) Handler {
		return func(ctx context.Context, req Request) (Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			outcome := OutcomeOK
			switch {
			case err != nil:
				outcome = OutcomeError
			case !resp.Success:
				outcome = OutcomeFailed
			}
			o.ObserveMessage(t, outcome, time.Since(start))
			return resp, err
		}
	}
}
