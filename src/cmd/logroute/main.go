// FILE: src/cmd/logroute/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lixenwraith/log"

	"logroute/src/internal/config"
	"logroute/src/internal/version"
)

var logger *log.Logger

func main() {
	if err := parseFlags(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	if *configFile != "" {
		os.Setenv("LOGROUTE_CONFIG_FILE", *configFile)
	}

	settings, err := config.LoadSettings(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
		os.Exit(1)
	}
	if *loggersFile != "" {
		settings.LoggersFile = *loggersFile
	}

	if err := initializeLogger(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer shutdownLogger()

	logger.Info("msg", "LogRoute starting",
		"version", version.String(),
		"settings_file", config.SettingsPath(),
		"loggers_file", settings.LoggersFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1)

	svc, adminServer, err := bootstrapService(ctx, settings)
	if err != nil {
		logger.Error("msg", "Failed to bootstrap service", "error", err)
		os.Exit(1)
	}

	// SIGHUP re-applies the destination configuration; SIGUSR1 forces a
	// rotation pass. Termination signals fall through to shutdown.
	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			if settings.LoggersFile == "" {
				logger.Warn("msg", "Reload signal received but no destination file configured")
				continue
			}
			logger.Info("msg", "Reload signal received", "signal", sig)
			svc.SetConfigurationFile(settings.LoggersFile)
			continue
		}
		if sig == syscall.SIGUSR1 {
			logger.Info("msg", "Rotation signal received", "signal", sig)
			svc.RotateFiles()
			continue
		}
		break
	}

	logger.Info("msg", "Shutdown signal received, starting graceful shutdown...")

	if adminServer != nil {
		if err := adminServer.Shutdown(); err != nil {
			logger.Warn("msg", "Admin server shutdown error", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		svc.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("msg", "Shutdown complete")
	case <-shutdownCtx.Done():
		logger.Error("msg", "Shutdown timeout exceeded - forcing exit")
		os.Exit(1)
	}
}

func shutdownLogger() {
	if logger != nil {
		if err := logger.Shutdown(2 * time.Second); err != nil {
			fmt.Fprintf(os.Stderr, "Logger shutdown error: %v\n", err)
		}
	}
}
