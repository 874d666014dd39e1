package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"kitstock/internal/audit"
	"kitstock/internal/catalog"
	"kitstock/internal/composition"
	compositionhandler "kitstock/internal/composition/handler"
	"kitstock/internal/ledger"
	ledgerhandler "kitstock/internal/ledger/handler"
	"kitstock/internal/platform/config"
	"kitstock/internal/platform/httpserver"
	"kitstock/internal/platform/logger"
	"kitstock/internal/platform/metrics"
	platformredis "kitstock/internal/platform/redis"
	"kitstock/internal/reconcile"
	"kitstock/internal/scenario"
	scenariohandler "kitstock/internal/scenario/handler"
	"kitstock/internal/session"
	sessionhandler "kitstock/internal/session/handler"
	httptransport "kitstock/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	var (
		db           *sql.DB
		catalogStore catalog.Catalog    = catalog.NewInMemory()
		compStore    composition.Store  = composition.NewInMemoryStore()
		ledgerStore  ledger.Store       = ledger.NewInMemoryStore()
		auditStore   audit.Store        = audit.NewInMemoryStore()
		scenStore    scenario.Store     = scenario.NewInMemoryStore()
		runner       reconcile.TxRunner = reconcile.NoopTxRunner{}
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		catalogStore = catalog.NewPostgres(db)
		compStore = composition.NewPostgresStore(db)
		ledgerStore = ledger.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		scenStore = scenario.NewPostgresStore(db)
		runner = newCommitPostgresTx(db)
	}

	var locker session.Locker = session.NewInMemoryLocker()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		locker = session.NewRedisLocker(redisClient.Client, cfg.LockTTL)
	}

	inbox := make(chan audit.Event, 256)
	if len(cfg.Kafka.Brokers) > 0 {
		auditStore = audit.FanoutStore{Store: auditStore, Inbox: inbox}
	}
	publisher := audit.NewPublisher(auditStore)

	compSvc, err := composition.NewService(compStore, catalogStore,
		composition.WithLogger(log), composition.WithMetrics(m))
	if err != nil {
		log.Error("build composition service", "error", err)
		os.Exit(1)
	}
	ledgerSvc, err := ledger.NewService(ledgerStore, ledger.WithLogger(log), ledger.WithMetrics(m))
	if err != nil {
		log.Error("build ledger service", "error", err)
		os.Exit(1)
	}
	engine, err := reconcile.NewEngine(ledgerStore, catalogStore, publisher, runner,
		reconcile.WithLogger(log), reconcile.WithMetrics(m))
	if err != nil {
		log.Error("build reconcile engine", "error", err)
		os.Exit(1)
	}
	sessionSvc, err := session.NewService(engine, locker, session.WithLogger(log))
	if err != nil {
		log.Error("build session service", "error", err)
		os.Exit(1)
	}
	scenarioSvc := scenario.NewService(scenStore)

	router := httptransport.NewRouter(log,
		scenariohandler.New(scenarioSvc, log),
		compositionhandler.New(compSvc, log),
		ledgerhandler.New(ledgerSvc, log),
		sessionhandler.New(sessionSvc, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(rootCtx)

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		worker := audit.NewWorker(sink, inbox, log)
		g.Go(func() error {
			if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		log.Info("starting kitstock", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return httpserver.Shutdown(srv, 10*time.Second)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
