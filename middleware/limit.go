package middleware

import (
	"net/http"

	"github.com/mnehpets/rpcexport/endpoint"
)

// MaxBodyBytes limits the request body to n bytes. Reading past the limit
// fails with *http.MaxBytesError, which endpoint.Unmarshal reports as 413.
// Requests that announce a larger Content-Length are rejected up front.
func MaxBodyBytes(n int64) endpoint.Processor {
	return endpoint.ProcessorFunc(func(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
		if r.ContentLength > n {
			return endpoint.Error(http.StatusRequestEntityTooLarge, "", nil)
		}
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, n)
		}
		return next(w, r)
	})
}
