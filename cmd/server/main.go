package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thereceipt/desk-engine/internal/api"
	"github.com/thereceipt/desk-engine/internal/config"
	"github.com/thereceipt/desk-engine/internal/device"
	"github.com/thereceipt/desk-engine/internal/logger"
	"github.com/thereceipt/desk-engine/internal/printer"
	"github.com/thereceipt/desk-engine/internal/registry"
	"github.com/thereceipt/desk-engine/internal/scanner"
	"go.uber.org/zap"
)

// Version is set during build via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Init(false)
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Init(cfg.Debug)
	defer logger.Sync()

	logger.Info("desk engine starting",
		zap.String("version", Version),
		zap.String("port", cfg.Port),
		zap.String("registry", cfg.RegistryPath))

	reg, err := registry.New(cfg.RegistryPath)
	if err != nil {
		logger.Fatal("failed to open registry", zap.Error(err))
	}

	// Readers given on the command line join the registered ones
	for _, path := range cfg.ScannerPaths {
		reg.AddReader(path, "", cfg.Automated)
	}

	devices := device.NewManager(reg)
	found := devices.Detect()
	logger.Info("device scan complete", zap.Int("devices", len(found)))

	queue := printer.NewPrintQueue(nil, cfg.MaxPrintRetries)
	defer queue.Stop()

	notifier := scanner.NewSessionNotifier(cfg.SessionBaseURL)

	// The server is created after the supervisor but scans are published
	// through it, so the handler looks it up lazily.
	var server *api.Server
	supervisor := scanner.NewSupervisor(nil, func(path string) scanner.Handler {
		automated := cfg.Automated
		for _, r := range reg.Readers() {
			if r.Path == path {
				automated = automated || r.Automated
			}
		}
		return scanner.OrderHandler(path, notifier, automated, func(scan scanner.Scan) {
			server.PublishScan(scan)
		})
	}, time.Second)

	server = api.NewServer(reg, devices, queue, supervisor)

	supervisor.Start()
	defer supervisor.Stop()
	server.SyncScanners()

	monitor := device.NewMonitor(devices, cfg.MonitorInterval)
	monitor.Start()
	defer monitor.Stop()

	httpServer := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Port,
		Handler: server.Handler(),
	}

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Info("starting API server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		logger.Error("server error", zap.Error(err))
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
}
