package jsonrpc

import (
	"context"
	"errors"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// DefaultMaxBodyBytes bounds request bodies accepted by the HTTP endpoint.
const DefaultMaxBodyBytes int64 = 1 << 20

// Dispatcher resolves, binds and invokes requests against a Registry and
// forms their responses.
//
// A Dispatcher holds no per-request state; it is safe for concurrent use.
type Dispatcher struct {
	registry     *Registry
	classifier   Classifier
	codec        Codec
	logger       zerolog.Logger
	maxBodyBytes int64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClassifier sets the classifier for method failures. Defaults to
// DefaultClassifier.
func WithClassifier(c Classifier) Option {
	return func(d *Dispatcher) { d.classifier = c }
}

// WithLogger sets the logger. Defaults to a disabled logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithCodec sets the wire codec. Defaults to JSONCodec.
func WithCodec(c Codec) Option {
	return func(d *Dispatcher) { d.codec = c }
}

// WithMaxBodyBytes bounds the size of request bodies read by the HTTP
// endpoint. n <= 0 disables the limit.
func WithMaxBodyBytes(n int64) Option {
	return func(d *Dispatcher) { d.maxBodyBytes = n }
}

// NewDispatcher creates a dispatcher over reg.
func NewDispatcher(reg *Registry, opts ...Option) (*Dispatcher, error) {
	if reg == nil {
		return nil, &ConfigError{Err: errors.New("registry is nil")}
	}
	d := &Dispatcher{
		registry:     reg,
		classifier:   DefaultClassifier,
		codec:        JSONCodec{},
		logger:       zerolog.Nop(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.classifier == nil {
		return nil, &ConfigError{Err: errors.New("classifier is nil")}
	}
	if d.codec == nil {
		return nil, &ConfigError{Err: errors.New("codec is nil")}
	}
	return d, nil
}

// Registry returns the registry the dispatcher resolves against.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Handle decodes body and dispatches it. ok is false when no response must
// be sent (a notification that did not fail before execution).
func (d *Dispatcher) Handle(ctx context.Context, body []byte) (resp Response, ok bool) {
	req, err := d.codec.DecodeRequest(body)
	if err != nil {
		rpcErr := ErrParse()
		var de *DecodeError
		if errors.As(err, &de) && de.RPC != nil {
			rpcErr = de.RPC
		}
		d.logger.Debug().Err(err).Int("code", rpcErr.Code).Msg("jsonrpc: undecodable request")
		// The id is unknown, so the response cannot be suppressed.
		return Response{ID: NullID(), Error: rpcErr}, true
	}
	return d.Dispatch(ctx, req)
}

// Dispatch runs a decoded request through validation, resolution, binding
// and invocation.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (resp Response, ok bool) {
	if rpcErr := validate(req); rpcErr != nil {
		d.logger.Debug().Stringer("id", req.ID).Str("method", req.Method).Msg("jsonrpc: invalid request")
		return respond(req.ID, nil, rpcErr)
	}

	m, found := d.registry.Resolve(req.Method)
	if !found {
		d.logger.Debug().Str("method", req.Method).Msg("jsonrpc: method not found")
		return respond(req.ID, nil, ErrMethodNotFound())
	}

	args, bindErr := Bind(req.Params, m)
	if bindErr != nil {
		d.logger.Debug().Err(bindErr).Str("method", m.Name()).Stringer("kind", bindErr.Kind).Msg("jsonrpc: binding rejected")
		return respond(req.ID, nil, bindErr.RPCError())
	}

	result, rpcErr := d.invoke(ctx, req, m, args)
	return respond(req.ID, result, rpcErr)
}

func validate(req *Request) *Error {
	switch {
	case req.JSONRPC != Version:
		return ErrInvalidRequest()
	case req.invalidID:
		return ErrInvalidRequest()
	case req.invalidMethod || req.Method == "":
		return ErrInvalidRequest()
	}
	return nil
}

func respond(reqID ID, result any, rpcErr *Error) (Response, bool) {
	id, ok := ResponseID(reqID, rpcErr.AlwaysRespond())
	if !ok {
		return Response{}, false
	}
	if rpcErr != nil {
		return Response{ID: id, Error: rpcErr}, true
	}
	return Response{ID: id, Result: result}, true
}

// invoke calls m and converts any failure into exactly one wire error.
// Panics, including those raised by the classifier, become InternalError.
// The method and the classifier see the dispatcher's logger via zerolog.Ctx.
func (d *Dispatcher) invoke(ctx context.Context, req *Request, m *Method, args CallArguments) (result any, rpcErr *Error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("method", m.Name()).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("jsonrpc: panic during invocation")
			result, rpcErr = nil, ErrInternal()
		}
	}()

	ctx = d.logger.WithContext(ctx)
	res, err := m.Call(ctx, args)
	if err == nil {
		return res, nil
	}
	return nil, d.classify(ctx, err, &Call{Method: m, Request: req})
}

func (d *Dispatcher) classify(ctx context.Context, err error, call *Call) *Error {
	rpcErr := d.classifier.Classify(ctx, err, call)
	if rpcErr == nil {
		d.logger.Error().Err(err).Str("method", call.Method.Name()).Msg("jsonrpc: classifier returned no error")
		return ErrInternal()
	}
	if IsReserved(rpcErr.Code) && rpcErr.Code != CodeInternalError {
		d.logger.Error().
			Err(err).
			Str("method", call.Method.Name()).
			Int("code", rpcErr.Code).
			Msg("jsonrpc: classifier used a reserved error code")
		return ErrInternal()
	}
	return rpcErr
}
