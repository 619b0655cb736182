// main wires the confidentiality engine's dependencies and keeps the server
// lifecycle small. Business logic lives in the internal services packages.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"haven/internal/access"
	"haven/internal/boundary"
	"haven/internal/consent"
	"haven/internal/engine"
	"haven/internal/export"
	"haven/internal/platform/config"
	"haven/internal/platform/httpserver"
	"haven/internal/platform/kafka/producer"
	"haven/internal/platform/logger"
	"haven/internal/platform/tracer"
	"haven/internal/policy"
	"haven/internal/pseudonym"
	httptransport "haven/internal/transport/http"
	"haven/pkg/platform/audit"
	"haven/pkg/platform/audit/publisher"
	auditsink "haven/pkg/platform/audit/sink"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing haven confidentiality engine",
		"addr", cfg.Addr,
		"postgres", cfg.PostgresURL != "",
		"redis", cfg.RedisAddr != "",
		"kafka", len(cfg.KafkaBrokers) > 0,
	)

	mapper, err := pseudonym.NewMapper(cfg.PseudonymSalt)
	if err != nil {
		log.Error("invalid pseudonym salt", "error", err)
		os.Exit(1)
	}

	// Audit events go to Kafka when brokers are configured; the in-memory
	// store keeps single-node runs working.
	var auditStore audit.Store = audit.NewInMemoryStore()
	var kafkaProducer *producer.Producer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaProducer, err = producer.New(producer.Config{
			Brokers:         cfg.KafkaBrokers,
			Acks:            "all",
			Retries:         5,
			DeliveryTimeout: 10 * time.Second,
		}, log)
		if err != nil {
			log.Error("failed to build kafka producer", "error", err)
			os.Exit(1)
		}
		auditStore = auditsink.NewKafka(kafkaProducer, cfg.AuditTopic)
	}
	auditPublisher := publisher.New(auditStore,
		publisher.WithAsyncBuffer(1024),
		publisher.WithLogger(log),
	)

	var db *sql.DB
	consentStore := consent.Store(consent.NewInMemoryStore())
	restrictionsStore := boundary.RestrictionsStore(boundary.NewInMemoryRestrictionsStore())
	if cfg.PostgresURL != "" {
		db, err = sql.Open("pgx", cfg.PostgresURL)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		consentStore = consent.NewPostgres(db)
		restrictionsStore = boundary.NewPostgres(db)
	}

	consentOpts := []consent.Option{
		consent.WithAudit(auditPublisher),
		consent.WithLogger(log),
		consent.WithDefaultTTL(cfg.ConsentTTL),
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		consentOpts = append(consentOpts, consent.WithLedger(consent.NewRedisLedger(rdb)))
	}
	consents := consent.NewService(consentStore, consentOpts...)

	exporter, err := export.NewBuilder(mapper,
		export.WithAudit(auditPublisher),
		export.WithLogger(log),
	)
	if err != nil {
		log.Error("failed to build export builder", "error", err)
		os.Exit(1)
	}

	eng, err := engine.New(engine.Deps{
		Boundary: boundary.NewEnforcer(restrictionsStore,
			boundary.WithAudit(auditPublisher),
			boundary.WithLogger(log),
		),
		Consent:  consents,
		Policy:   policy.NewService(auditPublisher, policy.WithLogger(log)),
		Mapper:   mapper,
		Exporter: exporter,
	},
		engine.WithAudit(auditPublisher),
		engine.WithTracer(tracer.NewOTel()),
		engine.WithLogger(log),
	)
	if err != nil {
		log.Error("failed to build engine", "error", err)
		os.Exit(1)
	}

	verifier := access.NewVerifier(cfg.SigningKey)
	handler := httptransport.NewHandler(eng, consents, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, verifier, log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down server gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
	}

	// Drain buffered audit events before releasing the sink.
	auditPublisher.Close()
	if kafkaProducer != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		kafkaProducer.Close(flushCtx)
		cancel()
	}
	if db != nil {
		db.Close()
	}

	log.Info("server stopped")
}
