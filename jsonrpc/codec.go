package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// Codec converts between wire bytes and requests/responses.
type Codec interface {
	// DecodeRequest returns a *DecodeError when body cannot be turned into a
	// request at all.
	DecodeRequest(body []byte) (*Request, error)
	EncodeResponse(resp Response) ([]byte, error)
}

// DecodeError is a failure to decode a request. RPC is the wire error to
// answer with; it always requires a response.
type DecodeError struct {
	RPC   *Error
	Cause error
}

func (e *DecodeError) Error() string {
	return "jsonrpc: decode: " + e.Cause.Error()
}

func (e *DecodeError) Unwrap() error { return e.Cause }

var (
	ErrMalformedJSON = errors.New("malformed JSON")
	ErrNotObject     = errors.New("request is not a JSON object")
)

// JSONCodec is the JSON wire codec.
type JSONCodec struct{}

// DecodeRequest validates body and reads the envelope members. It tells an
// absent "id" from "id": null and an absent "params" from "params": null.
// A member repeated in the envelope takes its last value, as encoding/json does.
func (JSONCodec) DecodeRequest(body []byte) (*Request, error) {
	if !gjson.ValidBytes(body) {
		return nil, &DecodeError{RPC: ErrParse(), Cause: ErrMalformedJSON}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, &DecodeError{RPC: ErrInvalidRequest(), Cause: ErrNotObject}
	}
	env := envelopeMembers(root)

	req := &Request{}
	if v := env["jsonrpc"]; v.Type == gjson.String {
		req.JSONRPC = v.Str
	}

	if v, ok := env["id"]; ok {
		switch v.Type {
		case gjson.Null:
			req.ID = NullID()
		case gjson.String:
			req.ID = StringID(v.Str)
		case gjson.Number:
			req.ID = NumberID(json.Number(v.Raw))
		default:
			req.ID = NullID()
			req.invalidID = true
		}
	}

	if v, ok := env["method"]; ok {
		if v.Type == gjson.String {
			req.Method = v.Str
		} else {
			req.invalidMethod = true
		}
	}

	v, ok := env["params"]
	req.Params = ParseParams(json.RawMessage(v.Raw), ok)
	return req, nil
}

// envelopeMembers indexes the top-level members of root; later duplicates
// replace earlier ones.
func envelopeMembers(root gjson.Result) map[string]gjson.Result {
	members := make(map[string]gjson.Result, 4)
	root.ForEach(func(k, v gjson.Result) bool {
		members[k.String()] = v
		return true
	})
	return members
}

// EncodeResponse writes resp as a single JSON object followed by a newline.
func (JSONCodec) EncodeResponse(resp Response) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp.envelope()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
