// Package middleware provides endpoint processors for the RPC transport.
package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mnehpets/rpcexport/endpoint"
)

// statusRecorder captures the status code and body size written downstream.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// RequestLogger logs one event per request after the rest of the chain has
// run. The logger is attached to the request context for zerolog.Ctx. 5xx
// responses log at error level, 4xx at warn, the rest at info.
//
// Errors returned by the chain are written by the handler after this
// processor returns, so they are logged with the status they will get.
func RequestLogger(logger zerolog.Logger) endpoint.Processor {
	return endpoint.ProcessorFunc(func(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		err := next(rec, r.WithContext(logger.WithContext(r.Context())))

		// A status already written is what the client got, error or not.
		status := rec.status
		if status == 0 {
			status = http.StatusOK
			if err != nil {
				status = errorStatus(err)
			}
		}

		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}
		if err != nil {
			event = event.Err(err)
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Int("bytes", rec.bytes).
			Msg("http_request")
		return err
	})
}

func errorStatus(err error) int {
	var ee *endpoint.EndpointError
	if errors.As(err, &ee) && ee != nil && ee.Status >= 100 {
		return ee.Status
	}
	return http.StatusInternalServerError
}
