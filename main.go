package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/stx-labs/pox-data-api/balances"
	"github.com/stx-labs/pox-data-api/configs"
	"github.com/stx-labs/pox-data-api/datastore/gorm"
	"github.com/stx-labs/pox-data-api/handlers"
	"github.com/stx-labs/pox-data-api/hiro"
	"github.com/stx-labs/pox-data-api/httpcache"
	"github.com/stx-labs/pox-data-api/jobs"
	"github.com/stx-labs/pox-data-api/migrations"
	"github.com/stx-labs/pox-data-api/prices"
	"github.com/stx-labs/pox-data-api/rewards"
	"github.com/stx-labs/pox-data-api/signal21"
	"github.com/stx-labs/pox-data-api/system"
	"github.com/stx-labs/pox-data-api/transactions"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/gomodule/redigo/redis"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const version = "1.2.0"

var (
	sha1ver   string // sha1 revision used to build the program
	buildTime string // when the executable was built
)

func main() {
	var printVersion bool

	// If we should just print the version number and exit
	flag.BoolVar(&printVersion, "version", false, "if true, print version and exit")
	flag.Parse()

	if printVersion {
		fmt.Printf("v%s build on %s from sha1 %s\n", version, buildTime, sha1ver)
		os.Exit(0)
	}

	cfg, err := configs.Parse()
	if err != nil {
		panic(err)
	}

	runServer(cfg)

	os.Exit(0)
}

func runServer(cfg *configs.Config) {
	configs.ConfigureLogger(cfg.LogLevel)

	log.Info("Starting server")

	// Database
	db, err := gorm.New()
	if err != nil {
		log.Fatal(err)
	}
	defer gorm.Close(db)

	if err := gormigrate.New(db, gormigrate.DefaultOptions, migrations.List()).Migrate(); err != nil {
		log.Fatal(err)
	}

	// Raw HTTP response cache shared by both upstream clients
	cache, err := httpcache.New(cfg.CacheDir)
	if err != nil {
		log.Fatal(err)
	}

	hiroClient := hiro.NewClient(cfg, cache)
	signal21Client := signal21.NewClient(cfg, cache)

	systemService := system.NewService(system.NewGormStore(db))

	// Create a worker pool
	wp := jobs.NewWorkerPool(
		jobs.NewGormStore(db),
		cfg.WorkerQueueCapacity,
		jobs.WithSystemService(systemService),
	)
	defer func() {
		wp.Stop()
		log.Info("Stopped workerpool")
	}()

	// Services
	jobsService := jobs.NewService(jobs.NewGormStore(db))
	transactionService := transactions.NewService(cfg, transactions.NewGormStore(db), hiroClient)
	transactionAsync := transactions.NewAsyncService(transactionService, wp)
	balanceService := balances.NewService(cfg, balances.NewGormStore(db), hiroClient)
	priceService := prices.NewService(cfg, prices.NewGormStore(db), signal21Client)
	rewardService := rewards.NewService(cfg, rewards.NewGormStore(db), hiroClient)

	// HTTP handling
	systemHandler := handlers.NewSystem(systemService)
	jobsHandler := handlers.NewJobs(jobsService)
	transactionHandler := handlers.NewTransactions(transactionService, transactionAsync)
	balanceHandler := handlers.NewBalances(balanceService, wp)
	priceHandler := handlers.NewPrices(priceService, wp)
	rewardHandler := handlers.NewRewards(rewardService, wp)

	r := mux.NewRouter()

	// Catch the api version
	rv := r.PathPrefix("/{apiVersion}").Subrouter()

	// Debug
	rv.Handle("/debug", handlers.Debug("https://github.com/stx-labs/pox-data-api", sha1ver, buildTime)).Methods(http.MethodGet)

	// Health
	rv.HandleFunc("/health/ready", handlers.HandleHealthReady).Methods(http.MethodGet)
	rv.Handle("/health/liveness", handlers.Liveness(func() (interface{}, error) {
		return transactionService.Coverage()
	})).Methods(http.MethodGet)

	// System
	rv.Handle("/system/settings", systemHandler.GetSettings()).Methods(http.MethodGet)
	rv.Handle("/system/settings", systemHandler.SetSettings()).Methods(http.MethodPost)

	// Jobs
	rv.Handle("/jobs", jobsHandler.List()).Methods(http.MethodGet)            // list
	rv.Handle("/jobs/{jobId}", jobsHandler.Details()).Methods(http.MethodGet) // details

	// Transactions
	rv.Handle("/transactions", transactionHandler.List()).Methods(http.MethodGet)                    // list
	rv.Handle("/transactions/coverage", transactionHandler.Coverage()).Methods(http.MethodGet)       // stored window
	rv.Handle("/transactions/sync", transactionHandler.Sync()).Methods(http.MethodPost)              // schedule sync
	rv.Handle("/transactions/{transactionId}", transactionHandler.Details()).Methods(http.MethodGet) // details

	// Balances
	rv.Handle("/balances", balanceHandler.List()).Methods(http.MethodGet)               // list snapshots
	rv.Handle("/balances/snapshot", balanceHandler.Snapshot()).Methods(http.MethodPost) // schedule snapshot

	// Prices
	rv.Handle("/prices/panel", priceHandler.Panel()).Methods(http.MethodGet) // joined series
	rv.Handle("/prices/sync", priceHandler.Sync()).Methods(http.MethodPost)  // schedule ingestion

	// Burnchain rewards and PoX cycles
	rv.Handle("/rewards", rewardHandler.List()).Methods(http.MethodGet)                            // list aggregates
	rv.Handle("/rewards/sync", rewardHandler.Sync()).Methods(http.MethodPost)                      // schedule ingestion
	rv.Handle("/rewards/{burnHeight}/anchor", rewardHandler.AnchorBlock()).Methods(http.MethodGet) // anchor block metadata
	rv.Handle("/pox/cycles", rewardHandler.PoxCycles()).Methods(http.MethodGet)                    // cycle passthrough

	h := http.TimeoutHandler(r, cfg.ServerRequestTimeout, "request timed out")
	h = handlers.UseCors(h)
	h = handlers.UseLogging(h)
	h = handlers.UseCompress(h)

	// Setup idempotency key middleware if it's enabled
	if !cfg.DisableIdempotencyMiddleware {
		var is handlers.IdempotencyStore
		switch cfg.IdempotencyMiddlewareDatabaseType {
		// Shared SQL/Gorm store (same as for main app)
		case handlers.IdempotencyStoreTypeShared.String():
			is = handlers.NewIdempotencyStoreGorm(db)
		// Redis, separate from app db
		case handlers.IdempotencyStoreTypeRedis.String():
			if cfg.IdempotencyMiddlewareRedisURL == "" {
				log.Fatal("idempotency middleware db set to redis but Redis URL is empty")
			}
			pool := &redis.Pool{
				MaxIdle:   80,
				MaxActive: 12000,
				Dial: func() (redis.Conn, error) {
					c, err := redis.DialURL(cfg.IdempotencyMiddlewareRedisURL)
					if err != nil {
						panic(err.Error())
					}
					return c, err
				},
			}

			client := pool.Get()

			defer func() {
				log.Info("Closing Redis client..")
				if err := client.Close(); err != nil {
					log.Warn(err)
				}
			}()

			is = handlers.NewIdempotencyStoreRedis(client)
		case handlers.IdempotencyStoreTypeLocal.String():
			is = handlers.NewIdempotencyStoreLocal()
		}

		h = handlers.UseIdempotency(h, handlers.IdempotencyHandlerOptions{
			Expiry: 1 * time.Hour,
		}, is)
	}

	// Server boilerplate
	srv := &http.Server{
		Handler:      h,
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		WriteTimeout: 0, // Disabled, set cfg.ServerRequestTimeout instead
		ReadTimeout:  0, // Disabled, set cfg.ServerRequestTimeout instead
	}

	// Run our server in a goroutine so that it doesn't block.
	go func() {
		log.
			WithFields(log.Fields{
				"host": cfg.Host,
				"port": cfg.Port,
			}).
			Info("Server listening")
		if err := srv.ListenAndServe(); err != nil {
			log.Warn(err)
		}
	}()

	c := make(chan os.Signal, 1)

	// We'll accept graceful shutdowns when quit via SIGINT (Ctrl+C)
	// SIGKILL, SIGQUIT or SIGTERM (Ctrl+/) will not be caught.
	signal.Notify(c, os.Interrupt)

	// Block until we receive our signal.
	<-c

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()

	// Doesn't block if no connections, but will otherwise wait
	// until the timeout deadline.
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn(err)
	}

	log.Info("Server shutting down")
}
