package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"presence/internal/claims"
	claimmetrics "presence/internal/claims/metrics"
	"presence/internal/claims/service"
	claimstore "presence/internal/claims/store/claim"
	eventstore "presence/internal/claims/store/event"
	"presence/internal/identity"
	jwttoken "presence/internal/jwt_token"
	"presence/internal/platform/config"
	"presence/internal/platform/httpserver"
	"presence/internal/platform/logger"
	platformmetrics "presence/internal/platform/metrics"
	"presence/internal/platform/postgres"
	"presence/internal/platform/postgres/migrations"
	platformredis "presence/internal/platform/redis"
	"presence/internal/relayer"
	"presence/internal/relayer/cometbft"
	"presence/pkg/platform/audit"
	"presence/pkg/platform/audit/publisher"
	auditkafka "presence/pkg/platform/audit/store/kafka"
	auditmemory "presence/pkg/platform/audit/store/memory"
	auditpostgres "presence/pkg/platform/audit/store/postgres"
	"presence/pkg/platform/circuit"
	"presence/pkg/platform/httputil"
	authmw "presence/pkg/platform/middleware/auth"
	"presence/pkg/platform/middleware/metadata"
	"presence/pkg/platform/middleware/request"
	"presence/pkg/platform/middleware/requesttime"
)

// main wires dependencies and owns the process lifecycle. Business logic lives
// in internal/claims.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("presence exited", "error", err)
		os.Exit(1)
	}
}

type backends struct {
	pool  *pgxpool.Pool
	redis *platformredis.Client
	kafka *auditkafka.Store
}

func (b *backends) close() {
	if b.kafka != nil {
		b.kafka.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()

	be, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer be.close()

	events, ledger := buildStores(cfg, be)
	auditPub := buildAudit(cfg, be, log)

	relay, chain, err := buildRelayer(cfg, reg, log)
	if err != nil {
		return err
	}

	claimMetrics := claimmetrics.New(reg)
	svc := claims.NewService(events, ledger, relay, identity.NewVerifier(),
		service.WithLogger(log.With("module", "claims")),
		service.WithAuditPublisher(auditPub),
		service.WithMetrics(claimMetrics),
		service.WithClaimWait(cfg.Claims.FinalityWait),
		service.WithRegisterWait(cfg.Claims.RegisterWait),
		service.WithReservationTTL(cfg.Claims.ReservationTTL),
	)
	monitor := claims.NewMonitor(ledger,
		service.WithMonitorInterval(cfg.Claims.MonitorInterval),
		service.WithMonitorLogger(log.With("module", "reservation_monitor")),
		service.WithMonitorMetrics(claimMetrics),
	)

	router := newRouter(cfg, log, reg, svc, be, chain)
	srv := httpserver.New(cfg.Server.Addr, router, httpserver.Timeouts{Write: cfg.Server.WriteTimeout})

	// The relayer outlives the HTTP server so in-flight claims can still
	// resolve during shutdown.
	relayCtx, stopRelay := context.WithCancel(context.WithoutCancel(ctx))
	defer stopRelay()
	relayDone := make(chan error, 1)
	go func() { relayDone <- relay.Run(relayCtx) }()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return monitor.Run(gctx) })
	g.Go(func() error {
		log.Info("starting presence", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	err = g.Wait()

	stopRelay()
	if rerr := <-relayDone; rerr != nil {
		err = errors.Join(err, rerr)
	}
	svc.WaitForSettlements()
	auditPub.Close()
	log.Info("presence stopped")
	return err
}

func connect(ctx context.Context, cfg config.Config, log *slog.Logger) (*backends, error) {
	be := &backends{}
	if cfg.Database.URL != "" {
		pool, err := postgres.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return nil, err
		}
		be.pool = pool
		if err := migrations.Apply(ctx, pool); err != nil {
			be.close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		be.close()
		return nil, err
	}
	be.redis = rc

	if len(cfg.Kafka.Brokers) > 0 {
		ks, err := auditkafka.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			be.close()
			return nil, fmt.Errorf("connect audit kafka: %w", err)
		}
		be.kafka = ks
	}
	return be, nil
}

// claimLedger is the claim store as both the service and the monitor see it.
type claimLedger interface {
	service.ClaimLedger
	service.StaleCounter
}

func buildStores(cfg config.Config, be *backends) (eventstore.Store, claimLedger) {
	var events eventstore.Store
	var ledger claimLedger
	if be.pool != nil {
		events = eventstore.NewPostgres(be.pool)
		ledger = claimstore.NewPostgres(be.pool)
	} else {
		events = eventstore.NewInMemory()
		ledger = claimstore.NewInMemory()
	}
	if be.redis != nil {
		events = eventstore.NewRedisCache(events, be.redis.Client, eventstore.WithCacheTTL(cfg.Redis.EventTTL))
	}
	return events, ledger
}

func buildAudit(cfg config.Config, be *backends, log *slog.Logger) *publisher.Publisher {
	var primary audit.Store
	if be.pool != nil {
		primary = auditpostgres.New(be.pool)
	} else {
		primary = auditmemory.NewInMemoryStore()
	}
	var sink audit.Store
	if be.kafka != nil {
		sink = be.kafka
	}
	return publisher.NewPublisher(audit.Fanout(primary, sink),
		publisher.WithAsyncBuffer(cfg.Audit.Buffer),
		publisher.WithLogger(log.With("module", "audit")),
	)
}

func buildRelayer(cfg config.Config, reg prometheus.Registerer, log *slog.Logger) (*relayer.Relayer, *cometbft.Client, error) {
	key, err := cfg.Relayer.SigningKey()
	if err != nil {
		return nil, nil, err
	}
	signer, err := relayer.NewSigner(cfg.Relayer.Principal, key)
	if err != nil {
		return nil, nil, err
	}
	chain, err := cometbft.Dial(cfg.Ledger.RPCAddr)
	if err != nil {
		return nil, nil, err
	}
	breaker := circuit.New("ledger",
		circuit.WithFailureThreshold(cfg.Relayer.BreakerThreshold),
		circuit.WithCooldown(cfg.Relayer.BreakerCooldown),
	)
	relay := relayer.New(chain, signer,
		relayer.WithLogger(log.With("module", "relayer")),
		relayer.WithMetrics(relayer.NewMetrics(reg)),
		relayer.WithBreaker(breaker),
		relayer.WithQueueSize(cfg.Relayer.QueueSize),
		relayer.WithPollInterval(cfg.Relayer.PollInterval),
		relayer.WithFinalityTimeout(cfg.Relayer.FinalityTimeout),
		relayer.WithBroadcastTimeout(cfg.Relayer.BroadcastTimeout),
		relayer.WithStartSequence(cfg.Relayer.StartSequence),
	)
	return relay, chain, nil
}

func newRouter(cfg config.Config, log *slog.Logger, reg *prometheus.Registry, svc *claims.Service, be *backends, chain *cometbft.Client) http.Handler {
	httpMetrics := platformmetrics.New(reg)

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(log))
	r.Use(request.Latency(httpMetrics))

	r.Get("/health", healthHandler(be, chain))
	// The default registry carries the runtime collectors and the event cache counters.
	r.Handle("/metrics", promhttp.HandlerFor(prometheus.Gatherers{prometheus.DefaultGatherer, reg}, promhttp.HandlerOpts{}))

	var validator authmw.TokenValidator
	if cfg.Auth.Secret != "" {
		validator = jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Audience))
	} else {
		log.Warn("ORGANIZER_JWT_SECRET not set, event registration is unauthenticated")
	}

	r.Group(func(api chi.Router) {
		api.Use(request.Timeout(cfg.Server.RequestTimeout))
		claims.NewHandler(svc, log.With("module", "http")).
			Register(api, authmw.RequireOrganizer(validator, log))
	})
	return r
}

func healthHandler(be *backends, chain *cometbft.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true
		record := func(name string, err error) {
			if err != nil {
				checks[name] = err.Error()
				healthy = false
				return
			}
			checks[name] = "ok"
		}
		if be.pool != nil {
			record("postgres", be.pool.Ping(ctx))
		}
		if be.redis != nil {
			record("redis", be.redis.Health(ctx))
		}
		if be.kafka != nil {
			record("kafka", be.kafka.Ping(ctx))
		}
		record("ledger", chain.Health(ctx))

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, map[string]any{"healthy": healthy, "checks": checks})
	}
}
