// Command gateway runs the federated GraphQL gateway described by
// spec.md: load a composed supergraph and a TOML config file, wire the
// request pipeline, and serve it over HTTP. Flag-based, single-binary
// startup in the style of hanpama-protograph/cmd/protograph/main.go,
// adapted from its multi-subcommand CLI to this gateway's single
// "run the server" job.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/thunderfed/gateway/internal/config"
	"github.com/thunderfed/gateway/internal/coordinator"
	"github.com/thunderfed/gateway/internal/gatewayhttp"
	"github.com/thunderfed/gateway/internal/ratelimit"
	"github.com/thunderfed/gateway/internal/schema"
	"github.com/thunderfed/gateway/internal/solver"
	"github.com/thunderfed/gateway/internal/telemetry"
	"github.com/thunderfed/gateway/internal/transport"
	"github.com/thunderfed/gateway/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	configPath := fs.String("config", "gateway.toml", "path to the gateway's TOML config file")
	addr := fs.String("addr", ":8080", "HTTP listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, err := newGateway(ctx, *configPath, log)
	if err != nil {
		return err
	}
	defer g.Close(context.Background())

	graphPath := g.graphPath()
	mux := http.NewServeMux()
	mux.Handle(graphPath, g.handler)
	mux.Handle(graphPath+"/stream", gatewayhttp.SSEHandler(g.coordinator))
	mux.Handle(graphPath+"/ws", gatewayhttp.WebSocketHandler(g.coordinator, log))

	var healthSrv *http.Server
	if g.cfg.Health.Enabled {
		healthHandler := gatewayhttp.HealthHandler()
		if g.cfg.Health.Listen == "" || g.cfg.Health.Listen == *addr {
			mux.Handle(g.healthPath(), healthHandler)
		} else {
			healthMux := http.NewServeMux()
			healthMux.Handle(g.healthPath(), healthHandler)
			healthSrv = &http.Server{Addr: g.cfg.Health.Listen, Handler: healthMux}
		}
	}

	srv := &http.Server{Addr: *addr, Handler: wrapCORS(mux)}
	errs := make(chan error, 2)
	go func() {
		log.Info("gateway listening", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()
	if healthSrv != nil {
		go func() {
			log.Info("health listener", "addr", g.cfg.Health.Listen)
			if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errs <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errs:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if healthSrv != nil {
		_ = healthSrv.Shutdown(shutdownCtx)
	}
	return nil
}

// gateway bundles everything built from configuration that main needs
// to mount handlers and shut down cleanly.
type gateway struct {
	cfg         *config.Config
	cfgWatcher  *config.Watcher
	coordinator *coordinator.Coordinator
	handler     *gatewayhttp.Handler
	telShutdown func(context.Context) error
}

func newGateway(ctx context.Context, configPath string, log logger.Logger) (*gateway, error) {
	sdl, endpoints, telShutdown, cfg, err := bootstrapOnce(ctx, configPath)
	if err != nil {
		return nil, err
	}

	coord := &coordinator.Coordinator{
		Schema:    sdl,
		Endpoints: endpoints,
		HTTP:      http.DefaultClient,
		Cost:      costBudget(cfg.ComplexityControl),
	}
	h := gatewayhttp.NewHandler(coord, cfg, ratelimit.FromConfig(cfg.Gateway.RateLimit), log)

	g := &gateway{
		cfg:         cfg,
		coordinator: coord,
		handler:     h,
		telShutdown: telShutdown,
	}

	// Reloading the whole process on every config write is wasteful for
	// the fields that are safe to swap in place: CSRF/introspection
	// toggles and the complexity budget take effect on the next request
	// with no synchronization beyond the field write itself (plain
	// bools/ints, same as the teacher's own relaxed style around
	// request-scoped config reads). A changed graph.path or subgraphs
	// section needs a new schema/transport.Endpoints pair built under a
	// lock to swap safely mid-traffic, which nothing in SPEC_FULL.md
	// exercises yet, so those two still require a restart.
	watcher, _, err := config.NewWatcher(configPath, func(next *config.Config) {
		g.handler.CSRF = next.CSRF
		g.handler.Graph = next.Graph
		g.coordinator.Cost = costBudget(next.ComplexityControl)
	})
	if err != nil {
		if telShutdown != nil {
			_ = telShutdown(ctx)
		}
		return nil, fmt.Errorf("starting config watcher: %w", err)
	}
	g.cfgWatcher = watcher

	return g, nil
}

func bootstrapOnce(ctx context.Context, configPath string) (*schema.Schema, transport.Endpoints, func(context.Context) error, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	raw, err := os.ReadFile(cfg.Graph.Path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("reading supergraph schema %s: %w", cfg.Graph.Path, err)
	}
	sch, err := schema.Load(string(raw))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("loading supergraph schema: %w", err)
	}

	endpoints := transport.Endpoints{}
	for name, sub := range cfg.Subgraphs {
		endpoints[name] = sub.URL
	}

	telShutdown, err := telemetry.Init(ctx, "gateway", cfg.Telemetry.Tracing)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	return sch, endpoints, telShutdown, cfg, nil
}

// graphPath is the mount point for the GraphQL endpoint and its
// subscription variants. config.GraphConfig.Path names the supergraph
// SDL file on disk, not a URL path, so this is fixed rather than
// config-driven.
func (g *gateway) graphPath() string {
	return "/graphql"
}

func (g *gateway) healthPath() string {
	if g.cfg.Health.Path == "" {
		return "/health"
	}
	return g.cfg.Health.Path
}

func (g *gateway) Close(ctx context.Context) {
	if g.cfgWatcher != nil {
		g.cfgWatcher.Close()
	}
	if g.telShutdown != nil {
		_ = g.telShutdown(ctx)
	}
}

func costBudget(cfg config.ComplexityConfig) solver.CostBudget {
	mode := solver.CostMeasure
	if cfg.Mode == "enforce" {
		mode = solver.CostEnforce
	}
	return solver.CostBudget{Mode: mode, Max: cfg.Limit}
}

func wrapCORS(h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Gateway-Require-Preflight"},
		AllowCredentials: false,
	}).Handler(h)
}
