// Command posts serves the posts API over HTTP and, when POSTS_NATS_URL is
// set, over NATS request/reply.
//
// Run with in-memory storage:
//
//	go run ./cmd/posts
//
// Configuration is read from POSTS_* environment variables; see
// internal/config. Print a document and exit:
//
//	go run ./cmd/posts -contract                   YAML contract to stdout
//	go run ./cmd/posts -spec -o openapi.yaml       YAML OpenAPI spec to a file
//
// Then explore:
//
//	GET    http://localhost:8080/docs                  API docs
//	GET    http://localhost:8080/contract.json         contract
//	GET    http://localhost:8080/api/posts?sort=asc    list posts
//	POST   http://localhost:8080/api/posts             create post
//	GET    http://localhost:8080/api/posts/1           get post
//	PUT    http://localhost:8080/api/posts/1           update post
//	DELETE http://localhost:8080/api/posts/1           delete post
//	GET    http://localhost:8080/metrics               Prometheus metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bjaus/rpc"
	"github.com/bjaus/rpc/internal/config"
	"github.com/bjaus/rpc/internal/posts"
	"github.com/bjaus/rpc/natsbridge"
)

// version is the API version published in the contract.
const version = "1.0.0"

func main() {
	contractFlag := flag.Bool("contract", false, "Print the YAML contract and exit")
	specFlag := flag.Bool("spec", false, "Print the YAML OpenAPI spec and exit")
	outFlag := flag.String("o", "", "Output file for -contract or -spec")
	flag.Parse()

	if *contractFlag || *specFlag {
		r := newRouter(slog.Default(), posts.NewMemoryStore())
		write := r.WriteContractYAML
		if *specFlag {
			write = r.WriteSpecYAML
		}
		if err := writeDoc(write, *outFlag); err != nil {
			slog.Error("document generation failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("posts stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := newRouter(logger, store)
	r.Use(middleware(cfg, logger, reg)...)
	r.Mount("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if cfg.Pprof {
		r.ServePprof("")
	}

	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("posts"))
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Close()

		bridge, err := natsbridge.Serve(nc, cfg.NATSSubject, r,
			natsbridge.WithQueue(cfg.NATSQueue),
			natsbridge.WithTimeout(cfg.RequestTimeout),
			natsbridge.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		defer bridge.Close() //nolint:errcheck // drained on shutdown
	}

	logger.Info("starting server", "addr", cfg.Addr, "docs", "/docs", "contract", "/contract.json")
	if err := r.ListenAndServe(ctx, cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// newRouter registers the posts API and its document endpoints.
func newRouter(logger *slog.Logger, store posts.Store) *rpc.Router {
	r := rpc.New(
		rpc.WithTitle("Posts"),
		rpc.WithVersion(version),
		rpc.WithLogger(logger),
	)

	posts.Register(r.Group("/api", rpc.WithGroupTags("posts")), store)

	r.ServeContract("/contract.json")
	r.ServeContractYAML("/contract.yaml")
	r.ServeSpec("/openapi.json")
	r.ServeSpecYAML("/openapi.yaml")
	r.ServeDocs("/docs", rpc.WithDocsContract("/contract.json"))
	return r
}

// middleware returns the router middleware, outermost first.
func middleware(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) []rpc.Middleware {
	mw := []rpc.Middleware{
		rpc.Recovery(logger),
		rpc.RequestID(),
		rpc.Logger(logger, rpc.LoggerConfig{
			Level:     slog.LevelInfo,
			SkipPaths: []string{"/api/health", "/metrics"},
		}),
		rpc.Metrics(rpc.MetricsConfig{Namespace: "posts", Registerer: reg}),
		rpc.Secure(),
		rpc.CORS(rpc.CORSConfig{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
			MaxAge:       600,
		}),
		rpc.Compress(),
		rpc.BodyLimit(cfg.BodyLimit),
	}
	if cfg.RateLimit > 0 {
		mw = append(mw, rpc.RateLimit(rpc.RateLimitConfig{Rate: cfg.RateLimit, Burst: cfg.RateBurst}))
	}
	return append(mw, rpc.Timeout(cfg.RequestTimeout), rpc.TrailingSlash())
}

// openStore returns the Postgres store when a database is configured and the
// memory store otherwise. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (posts.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Info("using in-memory storage")
		return posts.NewMemoryStore(), func() {}, nil
	}

	pool, err := posts.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	store := posts.NewPGStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}

func writeDoc(write func(io.Writer) error, path string) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
