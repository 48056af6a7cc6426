// Package jsonrpc exports a typed service over JSON-RPC 2.0.
//
// This package implements the JSON-RPC 2.0 specification (https://www.jsonrpc.org/specification)
// for single requests, and JSON-RPC over HTTP (https://www.simple-is-better.org/json-rpc/transport_http.html)
// on top of the endpoint package.
//
// # Basic Usage
//
// Describe the service as an interface, export it, and serve it:
//
//	type Math interface {
//	    Add(ctx context.Context, a, b int) (int, error)
//	}
//
//	methods, err := jsonrpc.Export[Math](&mathImpl{}, jsonrpc.WithNamer(jsonrpc.LowerCamel))
//	reg, err := jsonrpc.NewRegistry(methods...)
//	d, err := jsonrpc.NewDispatcher(reg)
//	http.Handle("/rpc", jsonrpc.Handler(d))
//
// Only the methods declared by the interface are exported. A request
// {"jsonrpc":"2.0","id":1,"method":"add","params":[2,3]} is answered with
// {"jsonrpc":"2.0","id":1,"result":5}.
//
// # Typed Adapters
//
// Methods can also be registered one by one without reflection:
//
//	reg, err := jsonrpc.NewRegistry(
//	    jsonrpc.Func2("add", func(ctx context.Context, a, b int) (int, error) { return a + b, nil }, "a", "b"),
//	    jsonrpc.Notify0("ping", func(ctx context.Context) error { return nil }),
//	)
//
// # Parameters
//
// Array params bind positionally and must match the method's parameter count
// exactly. Object params bind as the single argument of a one-parameter
// method, typically a struct. Unknown object members are rejected. Missing or
// null params call a method without parameters.
//
// # Errors
//
// Errors returned by methods go through a Classifier. DefaultClassifier
// always answers InternalError; PassthroughClassifier lets methods return
// *Error values such as
//
//	return 0, jsonrpc.NewError(1001, "division by zero")
//
// Codes in the reserved band [-32768, -32000] returned by a classifier are
// replaced with InternalError. Panics become InternalError.
//
// # Notifications
//
// Requests without an id get no response (HTTP 204), unless they fail with a
// Parse error or Invalid Request, which are always answered with id null.
package jsonrpc
