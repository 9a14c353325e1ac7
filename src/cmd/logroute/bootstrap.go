// FILE: src/cmd/logroute/bootstrap.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/lixenwraith/log"

	"logroute/src/internal/admin"
	"logroute/src/internal/config"
	"logroute/src/internal/service"
	"logroute/src/internal/version"
)

// bootstrapService constructs the engine from settings, applies the
// destination configuration file when one is declared and starts the
// admin surface when enabled.
func bootstrapService(ctx context.Context, settings *config.Settings) (*service.Service, *admin.Server, error) {
	opts := service.Options{
		DataDir:       settings.DataDir,
		SweepInterval: time.Duration(settings.SweepIntervalMs) * time.Millisecond,
		WatchInterval: time.Duration(settings.WatchIntervalMs) * time.Millisecond,
	}
	svc := service.New(ctx, opts, logger)
	svc.Start()

	if settings.LoggersFile != "" {
		logger.Info("msg", "Loading destination configuration",
			"path", settings.LoggersFile)
		if !svc.SetConfigurationFile(settings.LoggersFile) {
			logger.Warn("msg", "Destination configuration was not clean; valid entries applied",
				"path", settings.LoggersFile)
		}
	}

	var adminServer *admin.Server
	if settings.Admin.Enabled {
		var err error
		adminServer, err = admin.NewServer(admin.Config{
			Host:          settings.Admin.Host,
			Port:          settings.Admin.Port,
			BearerTokens:  settings.Admin.BearerTokens,
			JWTSigningKey: settings.Admin.JWTSigningKey,
		}, svc, logger)
		if err != nil {
			svc.Shutdown()
			return nil, nil, fmt.Errorf("failed to create admin server: %w", err)
		}
		go func() {
			if err := adminServer.Start(); err != nil {
				logger.Error("msg", "Admin server stopped", "error", err)
			}
		}()
	}

	logger.Info("msg", "LogRoute started",
		"version", version.Short(),
		"destinations", svc.Registry().Len(),
		"admin", settings.Admin.Enabled)
	return svc, adminServer, nil
}

// initializeLogger sets up the diagnostic logger from settings with
// flag overrides already folded in.
func initializeLogger(settings *config.Settings) error {
	logger = log.NewLogger()

	output := settings.Logging.Output
	if *logOutput != "" {
		output = *logOutput
	}
	level := settings.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}
	directory := settings.Logging.Directory
	if *logDir != "" {
		directory = *logDir
	}

	levelValue, err := parseLogLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	configArgs := []string{fmt.Sprintf("level=%d", levelValue)}

	switch output {
	case "none":
		configArgs = append(configArgs, "disable_file=true", "enable_stdout=false")
	case "stdout":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stdout")
	case "", "stderr":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stderr")
	case "file":
		configArgs = append(configArgs, "enable_stdout=false")
		configArgs = appendFileLogging(configArgs, settings, directory)
	case "both":
		configArgs = append(configArgs, "enable_stdout=true", "stdout_target=stderr")
		configArgs = appendFileLogging(configArgs, settings, directory)
	default:
		return fmt.Errorf("invalid log output mode: %s", output)
	}

	return logger.ApplyConfigString(configArgs...)
}

func appendFileLogging(configArgs []string, settings *config.Settings, directory string) []string {
	if directory != "" {
		configArgs = append(configArgs, fmt.Sprintf("directory=%s", directory))
	}
	name := settings.Logging.Name
	if name == "" {
		name = "logroute"
	}
	return append(configArgs, fmt.Sprintf("name=%s", name))
}
