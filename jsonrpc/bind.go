package jsonrpc

import (
	"fmt"
	"strconv"
)

// BindKind classifies why binding failed.
type BindKind int

const (
	// BindShape: params was neither array, object nor null/missing.
	BindShape BindKind = iota + 1
	// BindArity: the number of supplied params does not match the method.
	BindArity
	// BindConversion: a param could not be converted to its declared type.
	BindConversion
)

func (k BindKind) String() string {
	switch k {
	case BindShape:
		return "shape"
	case BindArity:
		return "arity"
	case BindConversion:
		return "conversion"
	}
	return "BindKind(" + strconv.Itoa(int(k)) + ")"
}

// BindError is a binding rejection. Index and Param identify the failing
// entry for conversion failures; they are for diagnostics and are not sent to
// the caller.
type BindError struct {
	Kind   BindKind
	Method string
	Index  int
	Param  string
	Want   int
	Got    int
	Err    error
}

func (e *BindError) Error() string {
	switch e.Kind {
	case BindShape:
		return fmt.Sprintf("jsonrpc: %s: params must be an array, an object or null", e.Method)
	case BindArity:
		return fmt.Sprintf("jsonrpc: %s: got %d params, want %d", e.Method, e.Got, e.Want)
	}
	return fmt.Sprintf("jsonrpc: %s: param #%d (%s): %v", e.Method, e.Index, e.Param, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// RPCError maps the rejection to its wire error.
func (e *BindError) RPCError() *Error {
	if e.Kind == BindShape {
		return ErrInvalidRequest()
	}
	return ErrInvalidParams()
}

// Bind converts params into the arguments of m.
//
// Missing and null params bind to no arguments. Array params bind
// positionally; the count is checked only after the available entries have
// been converted, and surplus entries are rejected rather than ignored.
// Object params bind as the single argument of a one-parameter method.
func Bind(p Params, m *Method) (CallArguments, *BindError) {
	switch p.Kind() {
	case ParamsMissing, ParamsNull:
		if m.Arity() != 0 {
			return nil, &BindError{Kind: BindArity, Method: m.name, Want: m.Arity(), Got: 0}
		}
		return CallArguments{}, nil

	case ParamsOrdered:
		entries := p.Ordered()
		args := make(CallArguments, 0, m.Arity())
		for i, raw := range entries {
			if i >= m.Arity() {
				break
			}
			shape := m.params[i]
			v, err := shape.convert(raw)
			if err != nil {
				return nil, &BindError{Kind: BindConversion, Method: m.name, Index: i, Param: shape.Name, Err: err}
			}
			args = append(args, v)
		}
		if len(entries) != m.Arity() {
			return nil, &BindError{Kind: BindArity, Method: m.name, Want: m.Arity(), Got: len(entries)}
		}
		return args, nil

	case ParamsKeyed:
		if m.Arity() != 1 {
			return nil, &BindError{Kind: BindArity, Method: m.name, Want: m.Arity(), Got: 1}
		}
		shape := m.params[0]
		v, err := shape.convert(p.Raw())
		if err != nil {
			return nil, &BindError{Kind: BindConversion, Method: m.name, Index: 0, Param: shape.Name, Err: err}
		}
		return CallArguments{v}, nil
	}

	return nil, &BindError{Kind: BindShape, Method: m.name}
}
