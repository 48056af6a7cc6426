package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
)

// CallArguments are converted arguments ready for invocation, one per
// declared parameter.
type CallArguments []any

// ParamShape describes one declared parameter of a method.
type ParamShape struct {
	Name string
	Type reflect.Type

	decode func(raw json.RawMessage) (any, error)
}

// Param returns the shape of a parameter of type T.
func Param[T any](name string) ParamShape {
	return ParamShape{Name: name, Type: reflect.TypeFor[T](), decode: decodeAs[T]}
}

func (s ParamShape) convert(raw json.RawMessage) (any, error) {
	if s.decode == nil {
		return nil, fmt.Errorf("param %q: no decoder", s.Name)
	}
	return s.decode(raw)
}

var errTrailingData = errors.New("unexpected data after value")

// decodeStrict decodes a single JSON value into dst, rejecting unknown object
// members and trailing data.
func decodeStrict(raw json.RawMessage, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errTrailingData
	}
	return nil
}

func decodeAs[T any](raw json.RawMessage) (any, error) {
	var v T
	if err := decodeStrict(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

type invokeFunc func(ctx context.Context, args CallArguments) (any, error)

// Method is a registered operation: its name, its parameter shapes and the
// call itself. Methods are immutable once built.
type Method struct {
	name   string
	params []ParamShape
	invoke invokeFunc
}

func (m *Method) Name() string { return m.name }

// Arity returns the number of declared parameters.
func (m *Method) Arity() int { return len(m.params) }

// Params returns a copy of the parameter shapes.
func (m *Method) Params() []ParamShape {
	return append([]ParamShape(nil), m.params...)
}

// Call invokes the method with already bound arguments.
func (m *Method) Call(ctx context.Context, args CallArguments) (any, error) {
	if len(args) != len(m.params) {
		return nil, fmt.Errorf("jsonrpc: %s: got %d arguments, want %d", m.name, len(args), len(m.params))
	}
	return m.invoke(ctx, args)
}

func shapes(names []string, mk ...func(string) ParamShape) []ParamShape {
	out := make([]ParamShape, len(mk))
	for i, f := range mk {
		name := "arg" + strconv.Itoa(i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		out[i] = f(name)
	}
	return out
}

// arg converts a bound argument back to its static type. A nil argument
// (JSON null into an interface type) becomes the zero value.
func arg[T any](v any) T {
	t, _ := v.(T)
	return t
}

// Func0 adapts a function taking no parameters.
func Func0[R any](name string, fn func(context.Context) (R, error)) *Method {
	return &Method{
		name:   name,
		params: []ParamShape{},
		invoke: func(ctx context.Context, _ CallArguments) (any, error) {
			return fn(ctx)
		},
	}
}

// Func1 adapts a function taking one parameter. argNames optionally names
// the parameters for diagnostics.
func Func1[A, R any](name string, fn func(context.Context, A) (R, error), argNames ...string) *Method {
	return &Method{
		name:   name,
		params: shapes(argNames, Param[A]),
		invoke: func(ctx context.Context, args CallArguments) (any, error) {
			return fn(ctx, arg[A](args[0]))
		},
	}
}

// Func2 adapts a function taking two parameters.
func Func2[A, B, R any](name string, fn func(context.Context, A, B) (R, error), argNames ...string) *Method {
	return &Method{
		name:   name,
		params: shapes(argNames, Param[A], Param[B]),
		invoke: func(ctx context.Context, args CallArguments) (any, error) {
			return fn(ctx, arg[A](args[0]), arg[B](args[1]))
		},
	}
}

// Func3 adapts a function taking three parameters.
func Func3[A, B, C, R any](name string, fn func(context.Context, A, B, C) (R, error), argNames ...string) *Method {
	return &Method{
		name:   name,
		params: shapes(argNames, Param[A], Param[B], Param[C]),
		invoke: func(ctx context.Context, args CallArguments) (any, error) {
			return fn(ctx, arg[A](args[0]), arg[B](args[1]), arg[C](args[2]))
		},
	}
}

// Notify0 adapts a function with no parameters and no result.
func Notify0(name string, fn func(context.Context) error) *Method {
	return &Method{
		name:   name,
		params: []ParamShape{},
		invoke: func(ctx context.Context, _ CallArguments) (any, error) {
			return nil, fn(ctx)
		},
	}
}

// Notify1 adapts a function with one parameter and no result.
func Notify1[A any](name string, fn func(context.Context, A) error, argNames ...string) *Method {
	return &Method{
		name:   name,
		params: shapes(argNames, Param[A]),
		invoke: func(ctx context.Context, args CallArguments) (any, error) {
			return nil, fn(ctx, arg[A](args[0]))
		},
	}
}
