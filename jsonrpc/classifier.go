package jsonrpc

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Call identifies the invocation a failure came from.
type Call struct {
	Method  *Method
	Request *Request
}

// Classifier converts an error returned by a method into a wire error.
//
// The dispatcher replaces any returned code in the reserved band (other than
// CodeInternalError) with InternalError, and a nil result with InternalError.
// The logger attached to ctx (zerolog.Ctx) is the dispatcher's.
type Classifier interface {
	Classify(ctx context.Context, err error, call *Call) *Error
}

// ClassifierFunc adapts a function to a Classifier.
type ClassifierFunc func(ctx context.Context, err error, call *Call) *Error

func (f ClassifierFunc) Classify(ctx context.Context, err error, call *Call) *Error {
	return f(ctx, err, call)
}

// DefaultClassifier logs the failure and reports InternalError, never
// exposing failure detail to the caller.
var DefaultClassifier Classifier = ClassifierFunc(func(ctx context.Context, err error, call *Call) *Error {
	zerolog.Ctx(ctx).Error().Err(err).Str("method", call.Method.Name()).Msg("jsonrpc: method failed")
	return ErrInternal()
})

// PassthroughClassifier surfaces *Error values returned (or wrapped) by
// methods and treats everything else like DefaultClassifier.
var PassthroughClassifier Classifier = ClassifierFunc(func(ctx context.Context, err error, call *Call) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) && rpcErr != nil {
		return rpcErr
	}
	return DefaultClassifier.Classify(ctx, err, call)
})
