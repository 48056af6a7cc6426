package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"unicode"
	"unicode/utf8"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

type exportConfig struct {
	namespace string
	namer     func(string) string
}

// ExportOption configures Export.
type ExportOption func(*exportConfig)

// WithNamespace prefixes every exported method name: "math" + "Add" -> "math.Add".
func WithNamespace(ns string) ExportOption {
	return func(c *exportConfig) { c.namespace = ns }
}

// WithNamer maps Go method names to wire method names.
func WithNamer(fn func(string) string) ExportOption {
	return func(c *exportConfig) { c.namer = fn }
}

// LowerCamel lowers the first rune of a Go method name: "GetUser" -> "getUser".
func LowerCamel(name string) string {
	r, n := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToLower(r)) + name[n:]
}

// Export builds one Method per exported method of the interface S, bound to
// impl.
//
// S must be an interface type; only the methods it declares are exported, not
// everything impl happens to implement. Supported method signatures are
//
//	func([ctx context.Context,] params...) [(result[, error]) | error]
//
// where ctx, when present, receives the request context and is not counted as
// a parameter. Variadic methods and methods returning anything else are a
// configuration error.
func Export[S any](impl S, opts ...ExportOption) ([]*Method, error) {
	cfg := exportConfig{namer: func(s string) string { return s }}
	for _, opt := range opts {
		opt(&cfg)
	}

	st := reflect.TypeFor[S]()
	if st.Kind() != reflect.Interface {
		return nil, &ConfigError{Err: fmt.Errorf("%w: %v", ErrNotInterface, st)}
	}
	sv := reflect.ValueOf(&impl).Elem()
	if sv.IsNil() {
		return nil, &ConfigError{Err: fmt.Errorf("%w: %v", ErrNilSurface, st)}
	}
	if dyn := sv.Elem(); isNilable(dyn.Kind()) && dyn.IsNil() {
		return nil, &ConfigError{Err: fmt.Errorf("%w: %v", ErrNilSurface, st)}
	}

	methods := make([]*Method, 0, st.NumMethod())
	for i := 0; i < st.NumMethod(); i++ {
		im := st.Method(i)
		if !im.IsExported() {
			continue
		}
		name := cfg.namer(im.Name)
		if cfg.namespace != "" {
			name = cfg.namespace + "." + name
		}
		m, err := reflectMethod(name, sv.Method(i), im.Type)
		if err != nil {
			return nil, &ConfigError{Method: st.String() + "." + im.Name, Err: err}
		}
		methods = append(methods, m)
	}
	return methods, nil
}

func isNilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return true
	}
	return false
}

// reflectMethod wraps a bound method value. ft is the method type without
// receiver.
func reflectMethod(name string, fn reflect.Value, ft reflect.Type) (*Method, error) {
	if ft.IsVariadic() {
		return nil, fmt.Errorf("%w: variadic", ErrBadSignature)
	}

	first := 0
	hasCtx := ft.NumIn() > 0 && ft.In(0) == contextType
	if hasCtx {
		first = 1
	}

	var hasResult, hasErr bool
	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) == errorType {
			hasErr = true
		} else {
			hasResult = true
		}
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("%w: second result must be error, got %v", ErrBadSignature, ft.Out(1))
		}
		hasResult, hasErr = true, true
	default:
		return nil, fmt.Errorf("%w: %d results", ErrBadSignature, ft.NumOut())
	}

	params := make([]ParamShape, 0, ft.NumIn()-first)
	for i := first; i < ft.NumIn(); i++ {
		t := ft.In(i)
		params = append(params, ParamShape{
			Name:   "arg" + strconv.Itoa(i-first),
			Type:   t,
			decode: reflectDecoder(t),
		})
	}

	invoke := func(ctx context.Context, args CallArguments) (any, error) {
		in := make([]reflect.Value, 0, ft.NumIn())
		if hasCtx {
			in = append(in, reflect.ValueOf(&ctx).Elem())
		}
		for i, a := range args {
			if a == nil {
				in = append(in, reflect.Zero(params[i].Type))
			} else {
				in = append(in, reflect.ValueOf(a))
			}
		}
		out := fn.Call(in)

		var result any
		var err error
		if hasResult {
			result = out[0].Interface()
		}
		if hasErr {
			if e := out[len(out)-1]; !e.IsNil() {
				err = e.Interface().(error)
			}
		}
		return result, err
	}

	return &Method{name: name, params: params, invoke: invoke}, nil
}

func reflectDecoder(t reflect.Type) func(json.RawMessage) (any, error) {
	return func(raw json.RawMessage) (any, error) {
		p := reflect.New(t)
		if err := decodeStrict(raw, p.Interface()); err != nil {
			return nil, err
		}
		return p.Elem().Interface(), nil
	}
}
