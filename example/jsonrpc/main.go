package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mnehpets/rpcexport/config"
	"github.com/mnehpets/rpcexport/endpoint"
	"github.com/mnehpets/rpcexport/jsonrpc"
	"github.com/mnehpets/rpcexport/logging"
	"github.com/mnehpets/rpcexport/middleware"
)

// Calculator is the capability surface exported over JSON-RPC.
type Calculator interface {
	Add(a, b int) int
	Divide(ctx context.Context, a, b float64) (float64, error)
	Sum(ctx context.Context, req SumRequest) (int, error)
	Since(t time.Time) string
}

type SumRequest struct {
	Values []int `json:"values"`
}

// ErrDivideByZero is mapped to a user error code by classify.
var ErrDivideByZero = errors.New("division by zero")

const codeDivideByZero = 1001

type calculator struct{}

func (calculator) Add(a, b int) int { return a + b }

func (calculator) Divide(_ context.Context, a, b float64) (float64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

func (calculator) Sum(_ context.Context, req SumRequest) (int, error) {
	total := 0
	for _, v := range req.Values {
		total += v
	}
	return total, nil
}

func (calculator) Since(t time.Time) string {
	return time.Since(t).Round(time.Second).String()
}

func classify(ctx context.Context, err error, call *jsonrpc.Call) *jsonrpc.Error {
	if errors.Is(err, ErrDivideByZero) {
		return jsonrpc.NewError(codeDivideByZero, "Division by zero")
	}
	return jsonrpc.DefaultClassifier.Classify(ctx, err, call)
}

func healthEndpoint(_ http.ResponseWriter, _ *http.Request, _ struct{}) (endpoint.Renderer, error) {
	return &endpoint.StringRenderer{Body: "ok\n"}, nil
}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	// boot reports problems until the configured logger exists.
	boot := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		boot.Info().Msg("no .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Fatal().Err(err).Msg("config")
	}

	logger, err := logging.New("rpcexport", cfg.Log, os.Stdout)
	if err != nil {
		boot.Fatal().Err(err).Msg("logging")
	}

	opts := []jsonrpc.ExportOption{jsonrpc.WithNamespace(cfg.Namespace)}
	if cfg.MethodNaming == config.NamingLowerCamel {
		opts = append(opts, jsonrpc.WithNamer(jsonrpc.LowerCamel))
	}
	methods, err := jsonrpc.Export[Calculator](calculator{}, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("export")
	}
	methods = append(methods,
		jsonrpc.Notify0("ping", func(ctx context.Context) error {
			zerolog.Ctx(ctx).Debug().Msg("ping")
			return nil
		}),
	)

	reg, err := jsonrpc.NewRegistry(methods...)
	if err != nil {
		logger.Fatal().Err(err).Msg("registry")
	}
	d, err := jsonrpc.NewDispatcher(reg,
		jsonrpc.WithLogger(logger),
		jsonrpc.WithClassifier(jsonrpc.ClassifierFunc(classify)),
		jsonrpc.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("dispatcher")
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, jsonrpc.Handler(d, middleware.RequestLogger(logger)))
	mux.Handle("GET /methods", jsonrpc.ListHandler(reg, middleware.RequestLogger(logger)))
	mux.Handle("GET /healthz", endpoint.HandleFunc(healthEndpoint))

	srv := &http.Server{
		Addr:        cfg.Addr,
		Handler:     mux,
		ReadTimeout: cfg.ReadTimeout,
	}
	logger.Info().Str("addr", cfg.Addr).Str("path", cfg.Path).Strs("methods", reg.Names()).Msg("listening")
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server")
	}
}
