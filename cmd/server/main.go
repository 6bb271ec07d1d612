package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/remiges-tech/logharbour/logharbour"
	"github.com/remiges-tech/txnanalyzer/analyzer"
	"github.com/remiges-tech/txnanalyzer/config"
	"github.com/remiges-tech/txnanalyzer/logger"
	"github.com/remiges-tech/txnanalyzer/metrics"
	"github.com/remiges-tech/txnanalyzer/router"
	"github.com/remiges-tech/txnanalyzer/service"
	"github.com/remiges-tech/txnanalyzer/txnsvc"
	"github.com/remiges-tech/txnanalyzer/upload"
)

const (
	appName         = "txnanalyzer"
	shutdownTimeout = 30 * time.Second
)

func main() {
	configSystem := flag.String("configSource", "file", "The configuration system to use (file, rigel or defaults)")
	configFilePath := flag.String("configFile", "./config.json", "The path to the configuration file")
	etcdEndpoints := flag.String("etcdEndpoints", "localhost:2379", "Comma-separated etcd endpoints for rigel")
	rigelApp := flag.String("rigelApp", appName, "Rigel application name")
	rigelModule := flag.String("rigelModule", "server", "Rigel module name")
	rigelVersion := flag.Int("rigelVersion", 1, "Rigel schema version")
	rigelConfigName := flag.String("configName", "dev", "The name of the rigel configuration")
	envFile := flag.String("envFile", "", "Optional .env file with TXN_* overrides")
	flag.Parse()

	var appConfig config.AppConfig
	switch *configSystem {
	case "file":
		if err := config.LoadConfigFromFile(*configFilePath, &appConfig); err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
	case "rigel":
		rigelClient, etcdClient, err := config.NewRigelClient(*etcdEndpoints, *rigelApp, *rigelModule, *rigelVersion, *rigelConfigName)
		if err != nil {
			log.Fatalf("Failed to create rigel client: %v", err)
		}
		err = config.LoadConfigFromRigel(rigelClient, &appConfig)
		etcdClient.Close()
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
	case "defaults":
	default:
		log.Fatalf("Unknown configuration system: %s", *configSystem)
	}
	if err := config.ApplyEnv(*envFile, &appConfig); err != nil {
		log.Fatalf("Error applying environment: %v", err)
	}
	if err := appConfig.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	l := logger.New(appName, appConfig.LogPriority, logharbour.NewFallbackWriter(os.Stdout, os.Stdout))
	l.WithModule("main").Info().LogActivity("Loaded configuration", map[string]any{"config": appConfig})

	if err := txnsvc.LoadErrorTypes(); err != nil {
		log.Fatalf("Failed to load error types: %v", err)
	}

	rcv, err := upload.NewReceiver(upload.Config{
		Dir:      appConfig.UploadDir,
		MaxBytes: appConfig.MaxUploadBytes,
		Patterns: appConfig.AllowedFilePatterns,
	})
	if err != nil {
		log.Fatalf("Failed to prepare uploads: %v", err)
	}

	m := metrics.NewPrometheusMetrics()

	gin.SetMode(gin.ReleaseMode)
	engine := router.NewEngine(l, m, appConfig.RequestTimeout())

	s := service.NewService(engine).
		WithConfig(&appConfig).
		WithLogger(l).
		WithMetrics(m).
		WithDependency(txnsvc.AnalyzerKey, analyzer.New(l, m)).
		WithDependency(txnsvc.ReceiverKey, rcv)
	txnsvc.Register(s)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", appConfig.AppServerPort),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.WithModule("main").Info().LogActivity("Server running", map[string]any{"addr": srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		l.WithModule("main").Info().LogActivity("Shutting down", map[string]any{"signal": sig.String()})
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting server: %v", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		l.WithModule("main").Error(err).LogActivity("Graceful shutdown failed", nil)
	}
}
