package endpoint

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type headerProcessor struct {
	Key   string
	Value string
}

func (hp headerProcessor) Process(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
	w.Header().Set(hp.Key, hp.Value)
	return next(w, r)
}

// failingRenderer returns err, after writing status and body when set.
type failingRenderer struct {
	status int
	body   string
	err    error
}

func (f failingRenderer) Render(w http.ResponseWriter, _ *http.Request) error {
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
	}
	return f.err
}

func okEndpoint(_ http.ResponseWriter, _ *http.Request, _ struct{}) (Renderer, error) {
	return &StringRenderer{Body: "ok"}, nil
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandler_ConstructorsServe(t *testing.T) {
	handlers := map[string]http.Handler{
		"Handler":    Handler(okEndpoint),
		"HandleFunc": HandleFunc(okEndpoint),
		"Struct":     &EndpointHandler[struct{}]{Endpoint: okEndpoint},
	}
	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			rec := serve(h, http.MethodGet, "/")
			if got := rec.Body.String(); got != "ok" {
				t.Fatalf("expected body %q, got %q", "ok", got)
			}
		})
	}
}

func TestHandler_ProcessorsRunInOrderBeforeEndpoint(t *testing.T) {
	var order []string
	mark := func(name string) Processor {
		return ProcessorFunc(func(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
			order = append(order, name)
			return next(w, r)
		})
	}

	h := Handler(func(_ http.ResponseWriter, _ *http.Request, _ struct{}) (Renderer, error) {
		order = append(order, "endpoint")
		return &StringRenderer{Body: "ok"}, nil
	}, mark("first"), headerProcessor{Key: "X-Test", Value: "1"}, mark("second"))

	rec := serve(h, http.MethodGet, "/")

	if got := strings.Join(order, ","); got != "first,second,endpoint" {
		t.Fatalf("expected order %q, got %q", "first,second,endpoint", got)
	}
	if got := rec.Result().Header.Get("X-Test"); got != "1" {
		t.Fatalf("expected X-Test header %q, got %q", "1", got)
	}
}

func TestHandler_ProcessorCanReplaceRequest(t *testing.T) {
	h := Handler(func(_ http.ResponseWriter, _ *http.Request, params struct {
		Trace string `header:"X-Trace"`
	}) (Renderer, error) {
		return &StringRenderer{Body: params.Trace}, nil
	}, ProcessorFunc(func(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
		r2 := r.Clone(r.Context())
		r2.Header.Set("X-Trace", "abc")
		return next(w, r2)
	}))

	rec := serve(h, http.MethodGet, "/")
	if got := rec.Body.String(); got != "abc" {
		t.Fatalf("expected body %q, got %q", "abc", got)
	}
}

func TestHandler_ErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		processor  Processor
		endpoint   EndpointFunc[struct{}]
		wantStatus int
		wantBody   string
	}{
		{
			name: "EndpointErrorFromProcessor",
			processor: ProcessorFunc(func(_ http.ResponseWriter, _ *http.Request, _ func(http.ResponseWriter, *http.Request) error) error {
				return Error(http.StatusForbidden, "nope", errors.New("forbidden"))
			}),
			endpoint:   okEndpoint,
			wantStatus: http.StatusForbidden,
			wantBody:   "nope",
		},
		{
			name: "EndpointErrorFromEndpoint",
			endpoint: func(_ http.ResponseWriter, _ *http.Request, _ struct{}) (Renderer, error) {
				return nil, Error(http.StatusUnauthorized, "unauthorized", nil)
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "unauthorized",
		},
		{
			name: "EmptyMessageUsesStatusText",
			endpoint: func(_ http.ResponseWriter, _ *http.Request, _ struct{}) (Renderer, error) {
				return nil, Error(http.StatusNotFound, "", errors.New("missing"))
			},
			wantStatus: http.StatusNotFound,
			wantBody:   http.StatusText(http.StatusNotFound),
		},
		{
			name: "InvalidStatus",
			endpoint: func(_ http.ResponseWriter, _ *http.Request, _ struct{}) (Renderer, error) {
				return nil, Error(0, "bad status", nil)
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "bad status",
		},
		{
			name: "PlainErrorFromProcessor",
			processor: ProcessorFunc(func(_ http.ResponseWriter, _ *http.Request, _ func(http.ResponseWriter, *http.Request) error) error {
				return errors.New("boom")
			}),
			endpoint:   okEndpoint,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "PlainErrorFromEndpoint",
			endpoint: func(_ http.ResponseWriter, _ *http.Request, _ struct{}) (Renderer, error) {
				return nil, errors.New("boom")
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "PlainErrorFromRenderer",
			endpoint: func(_ http.ResponseWriter, _ *http.Request, _ struct{}) (Renderer, error) {
				return failingRenderer{err: errors.New("boom")}, nil
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "NilRenderer",
			endpoint: func(_ http.ResponseWriter, _ *http.Request, _ struct{}) (Renderer, error) {
				return nil, nil
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h http.Handler
			if tt.processor != nil {
				h = Handler(tt.endpoint, tt.processor)
			} else {
				h = Handler(tt.endpoint)
			}
			rec := serve(h, http.MethodGet, "/")

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := rec.Result().Header.Get("Content-Type"); got != "text/plain; charset=utf-8" {
				t.Fatalf("expected Content-Type %q, got %q", "text/plain; charset=utf-8", got)
			}
			if tt.wantBody != "" {
				if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
					t.Fatalf("expected body %q, got %q", tt.wantBody, got)
				}
			}
		})
	}
}

func TestHandler_NilEndpoint_Is500(t *testing.T) {
	rec := serve(&EndpointHandler[struct{}]{}, http.MethodGet, "/")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestHandler_NilProcessor_Is500(t *testing.T) {
	rec := serve(Handler(okEndpoint, nil), http.MethodGet, "/")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestHandler_FirstErrorStopsPipeline(t *testing.T) {
	called := 0
	h := Handler(func(_ http.ResponseWriter, _ *http.Request, _ struct{}) (Renderer, error) {
		called++
		return &StringRenderer{Body: "ok"}, nil
	},
		ProcessorFunc(func(_ http.ResponseWriter, _ *http.Request, _ func(http.ResponseWriter, *http.Request) error) error {
			called++
			return Error(http.StatusForbidden, "stop", nil)
		}),
		ProcessorFunc(func(w http.ResponseWriter, r *http.Request, next func(http.ResponseWriter, *http.Request) error) error {
			called++
			return next(w, r)
		}),
	)

	rec := serve(h, http.MethodGet, "/")

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
	if called != 1 {
		t.Fatalf("expected called == 1, got %d", called)
	}
}

func TestError_DoesNotDoubleWrap(t *testing.T) {
	inner := Error(http.StatusRequestEntityTooLarge, "too big", nil)
	outer := Error(http.StatusBadRequest, "bad", inner)

	var ee *EndpointError
	if !errors.As(outer, &ee) {
		t.Fatalf("expected *EndpointError, got %T", outer)
	}
	if ee.Status != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected inner status %d, got %d", http.StatusRequestEntityTooLarge, ee.Status)
	}
}

func TestEndpointError_Unwrap_PreservesCause(t *testing.T) {
	cause := errors.New("root")
	err := Error(http.StatusTeapot, "teapot", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is(err, cause), got %v", err)
	}
	if got := err.Error(); got != "teapot: root" {
		t.Fatalf("expected message %q, got %q", "teapot: root", got)
	}
}

type closingRenderer struct {
	Renderer
	closed bool
}

func (c *closingRenderer) Close() error {
	c.closed = true
	return nil
}

func TestRendererCleanup(t *testing.T) {
	tests := []struct {
		name       string
		inner      Renderer
		wantStatus int
	}{
		{"OnSuccess", &StringRenderer{Body: "ok"}, http.StatusOK},
		{"OnRenderError", failingRenderer{err: errors.New("render failed")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cr := &closingRenderer{Renderer: tt.inner}
			h := HandleFunc(func(_ http.ResponseWriter, _ *http.Request, _ struct{}) (Renderer, error) {
				return cr, nil
			})

			rec := serve(h, http.MethodGet, "/")

			if !cr.closed {
				t.Error("expected Close() to be called")
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestHandler_PlainErrorIsHiddenAndLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	h := Handler(func(_ http.ResponseWriter, _ *http.Request, _ struct{}) (Renderer, error) {
		return nil, errors.New("db password wrong")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logger.WithContext(req.Context()))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := strings.TrimSpace(rec.Body.String()); got != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("expected body %q, got %q", http.StatusText(http.StatusInternalServerError), got)
	}
	if !strings.Contains(logs.String(), "db password wrong") {
		t.Fatalf("expected the cause to be logged, got %q", logs.String())
	}
}

func TestHandler_ClientErrorIsNotLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	h := Handler(func(_ http.ResponseWriter, _ *http.Request, _ struct{}) (Renderer, error) {
		return nil, Error(http.StatusBadRequest, "bad", nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logger.WithContext(req.Context()))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if logs.Len() != 0 {
		t.Fatalf("expected no log output, got %q", logs.String())
	}
}

func TestHandler_RenderErrorAfterWriteKeepsResponse(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	h := Handler(func(_ http.ResponseWriter, _ *http.Request, _ struct{}) (Renderer, error) {
		return failingRenderer{status: http.StatusOK, body: "partial", err: errors.New("connection reset")}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logger.WithContext(req.Context()))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if got := rec.Body.String(); got != "partial" {
		t.Fatalf("expected body %q, got %q", "partial", got)
	}
	if !strings.Contains(logs.String(), "connection reset") {
		t.Fatalf("expected the render error to be logged, got %q", logs.String())
	}
}
