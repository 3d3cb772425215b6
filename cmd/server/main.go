package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bidrag/internal/behandling/cessation"
	"bidrag/internal/behandling/handler"
	behandlingmetrics "bidrag/internal/behandling/metrics"
	"bidrag/internal/behandling/models"
	"bidrag/internal/behandling/service"
	"bidrag/internal/behandling/store"
	jwttoken "bidrag/internal/jwt_token"
	"bidrag/internal/platform/config"
	"bidrag/internal/platform/httpserver"
	"bidrag/internal/platform/logger"
	platformmetrics "bidrag/internal/platform/metrics"
	"bidrag/internal/platform/middleware"
	redisclient "bidrag/internal/platform/redis"
	"bidrag/pkg/platform/audit"
	auditfallback "bidrag/pkg/platform/audit/store/fallback"
	auditkafka "bidrag/pkg/platform/audit/store/kafka"
	auditmemory "bidrag/pkg/platform/audit/store/memory"
	auditpostgres "bidrag/pkg/platform/audit/store/postgres"
	"bidrag/pkg/platform/circuit"
	"bidrag/pkg/platform/httputil"
)

// caseStore is what the process needs from a behandling backend.
type caseStore interface {
	service.Store
	Create(ctx context.Context, c *models.Case) error
}

type healthCheck func(ctx context.Context) error

// infra holds the storage and audit backends selected by configuration.
type infra struct {
	store   caseStore
	tx      service.CaseStoreTx
	audit   audit.Store
	checks  map[string]healthCheck
	closers []func()
}

func (i *infra) close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		i.closers[j]()
	}
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	scope, err := cessation.ParseCustodyScope(cfg.CustodyScope)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps, err := buildInfra(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer deps.close()

	if os.Getenv("SEED_DEMO") == "true" {
		caseID, err := seedDemoCase(ctx, deps.store)
		if err != nil {
			return fmt.Errorf("seed demo behandling: %w", err)
		}
		log.Info("seeded demo behandling", "behandling_id", caseID)
	}

	engineOpts := []cessation.Option{cessation.WithCustodyScope(scope), cessation.WithLogger(log)}
	if cfg.KeepFutureOpenEnds {
		engineOpts = append(engineOpts, cessation.WithKeepFutureOpenEnds())
	}
	svc := service.New(deps.store,
		service.WithLogger(log),
		service.WithMetrics(behandlingmetrics.New(reg)),
		service.WithAuditPublisher(audit.NewPublisher(deps.audit)),
		service.WithEngine(cessation.New(engineOpts...)),
		service.WithTx(deps.tx),
	)

	jwtValidator := jwttoken.NewJWTServiceAdapter(
		jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(log, platformmetrics.New(reg)))
	r.Get("/health", healthHandler(deps.checks))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtValidator, log))
		handler.New(svc, log).Register(r)
	})

	log.Info("starting bidrag-behandling",
		"addr", cfg.Addr,
		"storage", cfg.Storage.Driver,
		"custody_scope", scope,
	)
	if err := httpserver.Run(ctx, httpserver.New(cfg.Addr, r), log); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger, reg prometheus.Registerer) (*infra, error) {
	in := &infra{checks: make(map[string]healthCheck)}
	ok := false
	defer func() {
		if !ok {
			in.close()
		}
	}()

	var outbox *auditpostgres.Store
	switch cfg.Storage.Driver {
	case "memory":
		s := store.NewInMemory()
		in.store = s
		in.tx = service.NewShardedTx(s, cfg.TxTimeout)
	case "postgres":
		if cfg.Storage.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for postgres storage")
		}
		db, err := sql.Open("postgres", cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		in.closers = append(in.closers, func() { _ = db.Close() })
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		s := store.NewPostgres(db)
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
		outbox = auditpostgres.New(db)
		if err := outbox.Migrate(ctx); err != nil {
			return nil, err
		}
		in.store = s
		in.tx = newCasePostgresTx(db, cfg.TxTimeout)
		in.checks["postgres"] = db.PingContext
	case "redis":
		client, err := redisclient.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, func() { _ = client.Close() })
		s := store.NewRedis(client.Client)
		in.store = s
		// Per-process serialisation; Save's WATCH catches writers in other
		// processes.
		in.tx = service.NewShardedTx(s, cfg.TxTimeout)
		in.checks["redis"] = client.Health
		reg.MustRegister(redisclient.NewPoolCollector(client))
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	switch {
	case len(cfg.Audit.KafkaBrokers) > 0:
		sink, err := auditkafka.New(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, sink.Close)
		in.checks["kafka"] = sink.Health
		if outbox == nil {
			in.audit = sink
			break
		}
		breaker := circuit.New("audit-kafka",
			circuit.WithFailureThreshold(cfg.Audit.BreakerFailures),
			circuit.WithCooldown(cfg.Audit.BreakerCooldown),
		)
		in.audit = auditfallback.New(sink, outbox, breaker,
			auditfallback.WithMetrics(auditfallback.NewMetrics(reg)),
			auditfallback.WithLogger(log),
		)
	case outbox != nil:
		in.audit = outbox
	default:
		log.Warn("audit events are kept in memory only")
		in.audit = auditmemory.NewInMemoryStore()
	}

	ok = true
	return in, nil
}

func healthHandler(checks map[string]healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = "unavailable"
				continue
			}
			results[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status": http.StatusText(status),
			"checks": results,
		})
	}
}
