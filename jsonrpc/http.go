package jsonrpc

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/mnehpets/rpcexport/endpoint"
	"github.com/mnehpets/rpcexport/middleware"
)

// rpcParams captures the raw request body. Parsing is deferred to the codec
// because JSON-RPC answers malformed JSON with a Parse error rather than an
// HTTP 400.
type rpcParams struct {
	Body        []byte `body:"" maxLength:"0"`
	ContentType string `header:"Content-Type"`
}

// Endpoint is the endpoint function serving JSON-RPC over HTTP POST.
// Pass it to endpoint.Handler, or use Handler. The body limit set with
// WithMaxBodyBytes holds on both paths; Handler also stops reading at the
// limit instead of after the body is buffered.
//
// Responses are 200 with an application/json body, or 204 when the request
// was a notification. Transport-level failures (wrong method, wrong content
// type, response encoding failure) are HTTP errors with no JSON-RPC body.
func (d *Dispatcher) Endpoint(_ http.ResponseWriter, r *http.Request, params rpcParams) (endpoint.Renderer, error) {
	if r.Method != http.MethodPost {
		return nil, endpoint.Error(http.StatusMethodNotAllowed, "JSON-RPC requires POST method", nil)
	}
	if params.ContentType != "" {
		mt, _, err := mime.ParseMediaType(params.ContentType)
		if err != nil || !strings.EqualFold(mt, "application/json") {
			return nil, endpoint.Error(http.StatusUnsupportedMediaType, "Content-Type must be application/json", err)
		}
	}

	if d.maxBodyBytes > 0 && int64(len(params.Body)) > d.maxBodyBytes {
		return nil, endpoint.Error(http.StatusRequestEntityTooLarge, "", nil)
	}

	resp, ok := d.Handle(r.Context(), params.Body)
	if !ok {
		return &endpoint.NoContentRenderer{}, nil
	}

	body, err := d.codec.EncodeResponse(resp)
	if err != nil {
		d.logger.Error().Err(err).Stringer("id", resp.ID).Msg("jsonrpc: failed to encode response")
		return nil, endpoint.Error(http.StatusInternalServerError, "", err)
	}
	return &endpoint.BytesRenderer{Body: body}, nil
}

// Handler returns an http.Handler serving d. The body size limit configured
// on d is applied after the given processors.
func Handler(d *Dispatcher, processors ...endpoint.Processor) http.Handler {
	chain := append([]endpoint.Processor(nil), processors...)
	if d.maxBodyBytes > 0 {
		chain = append(chain, middleware.MaxBodyBytes(d.maxBodyBytes))
	}
	return endpoint.Handler(d.Endpoint, chain...)
}

type listParams struct {
	Pretty string `query:"pretty" maxLength:"8"`
}

// ListHandler serves the names registered in reg as a sorted JSON array.
// A true "pretty" query value indents the output.
func ListHandler(reg *Registry, processors ...endpoint.Processor) http.Handler {
	return endpoint.Handler(func(_ http.ResponseWriter, _ *http.Request, params listParams) (endpoint.Renderer, error) {
		pretty := false
		if params.Pretty != "" {
			b, err := strconv.ParseBool(params.Pretty)
			if err != nil {
				return nil, endpoint.Error(http.StatusBadRequest, "pretty must be a boolean", err)
			}
			pretty = b
		}
		r := &endpoint.JSONRenderer{Value: reg.Names()}
		if pretty {
			r.Indent = "  "
		}
		return r, nil
	}, processors...)
}
