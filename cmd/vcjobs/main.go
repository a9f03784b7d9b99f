package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/vendorconnect/jobs/internal/config"
	"github.com/vendorconnect/jobs/internal/handler/health"
	promhandler "github.com/vendorconnect/jobs/internal/handler/prometheus"
	"github.com/vendorconnect/jobs/internal/job"
	"github.com/vendorconnect/jobs/internal/repository/postgres"
	"github.com/vendorconnect/jobs/internal/router"
	"github.com/vendorconnect/jobs/internal/worker"
	"github.com/vendorconnect/jobs/pkg/logger"
	"github.com/vendorconnect/jobs/pkg/metrics"
)

const (
	cmdMigrate  = "migrate"
	cmdSchedule = "schedule"

	metricsNamespace = "vcjobs"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: vcjobs [--config path] <command>\n\nCommands:\n")
	for _, name := range job.Names() {
		fmt.Fprintf(os.Stderr, "  %s\n", name)
	}
	fmt.Fprintf(os.Stderr, "  %s\n  %s\n\nFlags:\n", cmdMigrate, cmdSchedule)
	pflag.PrintDefaults()
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := pflag.StringP("config", "c", "", "path to config.yml")
	pflag.Usage = usage
	pflag.Parse()

	if pflag.NArg() != 1 {
		usage()
		return 2
	}
	command := pflag.Arg(0)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Log.Console,
	}).WithFields(map[string]interface{}{
		"service": "vcjobs",
		"command": command,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("Shutting down...", "signal", sig.String())
		cancel()
	}()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Error(err, "Failed to connect to database")
		return 1
	}
	defer db.Close()

	if command == cmdMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error(err, "Migration failed")
			return 1
		}
		log.Info("Migration complete")
		return 0
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(metricsNamespace)
	if err := m.Register(reg); err != nil {
		log.Error(err, "Failed to register metrics")
		return 1
	}

	app, err := newApp(ctx, cfg, db, m, log)
	if err != nil {
		log.Error(err, "Failed to initialize jobs")
		return 1
	}
	defer app.Close()

	runner := job.NewRunner(log, m, cfg.Jobs.Timeouts)

	if command == cmdSchedule {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if err := schedule(ctx, cfg, runner, app, reg, db, log); err != nil {
			log.Error(err, "Scheduler failed")
			return 1
		}
		return 0
	}

	j, ok := app.Job(command)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q (expected one of %s, %s, %s)\n",
			command, strings.Join(job.Names(), ", "), cmdMigrate, cmdSchedule)
		return 2
	}

	if _, err := runner.Run(ctx, j); err != nil {
		return 1
	}
	return 0
}

// schedule registers every job on its cron spec and serves the ops endpoints
// until ctx is cancelled.
func schedule(ctx context.Context, cfg *config.Config, runner *job.Runner, app *App, reg *prometheus.Registry, db health.Pinger, log *logger.Logger) error {
	sched := worker.NewScheduler(runner, cfg.Location(), log)
	for _, name := range job.Names() {
		j, _ := app.Job(name)
		if err := sched.Register(cfg.Jobs.Schedule(name), j); err != nil {
			return err
		}
	}

	promH, err := promhandler.New(reg, metricsNamespace)
	if err != nil {
		return fmt.Errorf("failed to register http metrics: %w", err)
	}
	checks := app.Checks()
	checks["database"] = db
	engine := router.NewRouter(health.NewHandler(checks), promH, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "Ops server failed", "addr", srv.Addr)
		}
	}()
	log.Info("Ops server listening", "addr", srv.Addr)

	sched.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down ops server: %w", err)
	}
	return nil
}
