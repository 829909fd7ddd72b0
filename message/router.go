package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Handler serves one message type.
type Handler func(ctx context.Context, req Request) (Response, error)

// Router maps message types to handlers. It is safe for concurrent use.
type Router struct {
	mu       sync.RWMutex
	handlers map[Type]Handler
	mw       Middleware
	logger   *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithMiddleware wraps every handler registered afterwards.
func WithMiddleware(mws ...Middleware) Option {
	return func(r *Router) { r.mw = Chain(mws...) }
}

// NewRouter returns an empty Router.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		handlers: make(map[Type]Handler),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Handle registers h for t, replacing any previous handler.
func (r *Router) Handle(t Type, h Handler) {
	if r.mw != nil {
		h = r.mw(t, h)
	}
	r.mu.Lock()
	r.handlers[t] = h
	r.mu.Unlock()
}

// Handles reports whether t has a handler.
func (r *Router) Handles(t Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[t]
	return ok
}

// Call runs the handler for req.Type and returns its result unchanged.
func (r *Router) Call(ctx context.Context, req Request) (Response, error) {
	r.mu.RLock()
	h, ok := r.handlers[req.Type]
	r.mu.RUnlock()
	if !ok {
		return Response{}, &ErrUnknownType{Type: req.Type}
	}
	return h(ctx, req)
}

// Dispatch is Call for callers that need an answer no matter what: unknown
// types get UnknownTypeText, handler errors become {success: false, error}.
func (r *Router) Dispatch(ctx context.Context, req Request) Response {
	resp, err := r.Call(ctx, req)
	if err == nil {
		return resp
	}
	var unknown *ErrUnknownType
	if errors.As(err, &unknown) {
		r.logger.WarnContext(ctx, "message: unknown type", "type", req.Type)
		return Fail(UnknownTypeText)
	}
	return Fail(ErrorText(err))
}

// DispatchJSON decodes a Request from raw and dispatches it. Undecodable
// input is answered like an unknown type.
func (r *Router) DispatchJSON(ctx context.Context, raw []byte) Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		r.logger.WarnContext(ctx, "message: decode", "error", err)
		return Fail(UnknownTypeText)
	}
	return r.Dispatch(ctx, req)
}

// PublicError is an error whose Public text is safe to show to the user.
type PublicError interface {
	error
	Public() string
}

// ErrorText is the user-facing text of err.
func ErrorText(err error) string {
	var pub PublicError
	if errors.As(err, &pub) {
		return pub.Public()
	}
	return err.Error()
}

// Publicf wraps err with user-facing text.
func Publicf(err error, format string, args ...any) error {
	return &publicError{err: err, text: fmt.Sprintf(format, args...)}
}

type publicError struct {
	err  error
	text string
}

func (e *publicError) Error() string  { return e.err.Error() }
func (e *publicError) Unwrap() error  { return e.err }
func (e *publicError) Public() string { return e.text }
