package jsonrpc

// Version is the only protocol version accepted and emitted.
const Version = "2.0"

// Request is a decoded JSON-RPC request. It is not modified after decoding.
type Request struct {
	JSONRPC string
	ID      ID
	// Method is empty when the member was absent or not a string.
	Method string
	Params Params

	// invalidID is set when "id" was present but neither string, number nor null.
	invalidID bool
	// invalidMethod is set when "method" was present but not a string.
	invalidMethod bool
}

// IsNotification reports whether the request carries no id.
func (r *Request) IsNotification() bool {
	return r.ID.IsNotification()
}

// Response is a JSON-RPC response. A nil Error means success, in which case
// Result is written even when it is nil.
type Response struct {
	ID     ID
	Result any
	Error  *Error
}

type resultEnvelope struct {
	JSONRPC string `json:"jsonrpc"`
	ID      ID     `json:"id"`
	Result  any    `json:"result"`
}

type errorEnvelope struct {
	JSONRPC string `json:"jsonrpc"`
	ID      ID     `json:"id"`
	Error   *Error `json:"error"`
}

// envelope returns the wire form of r: "id" is always present, followed by
// exactly one of "result" or "error".
func (r Response) envelope() any {
	if r.Error != nil {
		return errorEnvelope{JSONRPC: Version, ID: r.ID, Error: r.Error}
	}
	return resultEnvelope{JSONRPC: Version, ID: r.ID, Result: r.Result}
}
