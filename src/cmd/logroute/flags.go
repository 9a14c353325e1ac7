// FILE: src/cmd/logroute/flags.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lixenwraith/log"
)

// Command-line flags
var (
	configFile  = flag.String("config", "", "Settings file path")
	loggersFile = flag.String("loggers", "", "Log destination configuration file (XML or JSON)")
	showVersion = flag.Bool("version", false, "Show version information")

	logOutput = flag.String("log-output", "", "Diagnostic log output: file, stdout, stderr, both, none (overrides settings)")
	logLevel  = flag.String("log-level", "", "Diagnostic log level: debug, info, warn, error (overrides settings)")
	logDir    = flag.String("log-dir", "", "Diagnostic log directory (when using file output)")
)

func init() {
	flag.Usage = customUsage
}

func customUsage() {
	fmt.Fprintf(os.Stderr, "LogRoute - Configuration-Driven Log Routing Engine\n\n")
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Options:\n")

	fmt.Fprintf(os.Stderr, "\nGeneral:\n")
	fmt.Fprintf(os.Stderr, "  -config string\n\tSettings file path\n")
	fmt.Fprintf(os.Stderr, "  -loggers string\n\tLog destination configuration file (XML or JSON)\n")
	fmt.Fprintf(os.Stderr, "  -version\n\tShow version information\n")

	fmt.Fprintf(os.Stderr, "\nLogging:\n")
	fmt.Fprintf(os.Stderr, "  -log-output string\n\tDiagnostic log output: file, stdout, stderr, both, none\n")
	fmt.Fprintf(os.Stderr, "  -log-level string\n\tDiagnostic log level: debug, info, warn, error\n")
	fmt.Fprintf(os.Stderr, "  -log-dir string\n\tDiagnostic log directory (when using file output)\n")

	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  # Run with a destination configuration file\n")
	fmt.Fprintf(os.Stderr, "  %s --loggers /etc/logroute/loggers.xml\n\n", os.Args[0])

	fmt.Fprintf(os.Stderr, "  # Run with custom settings and debug diagnostics\n")
	fmt.Fprintf(os.Stderr, "  %s --config /etc/logroute.toml --log-level debug\n\n", os.Args[0])

	fmt.Fprintf(os.Stderr, "Environment Variables:\n")
	fmt.Fprintf(os.Stderr, "  LOGROUTE_CONFIG_FILE  Settings file path\n")
	fmt.Fprintf(os.Stderr, "  LOGROUTE_CONFIG_DIR   Settings directory\n")
	fmt.Fprintf(os.Stderr, "  LOGROUTE_DATA_DIR     Default log root (absolute paths only)\n")
}

func parseFlags() error {
	flag.Parse()

	if *logOutput != "" {
		validOutputs := map[string]bool{
			"file": true, "stdout": true, "stderr": true,
			"both": true, "none": true,
		}
		if !validOutputs[*logOutput] {
			return fmt.Errorf("invalid log-output: %s (valid: file, stdout, stderr, both, none)", *logOutput)
		}
	}

	if *logLevel != "" {
		if _, err := parseLogLevel(*logLevel); err != nil {
			return fmt.Errorf("invalid log-level: %s (valid: debug, info, warn, error)", *logLevel)
		}
	}

	return nil
}

func parseLogLevel(level string) (int, error) {
	switch strings.ToLower(level) {
	case "debug":
		return int(log.LevelDebug), nil
	case "info":
		return int(log.LevelInfo), nil
	case "warn", "warning":
		return int(log.LevelWarn), nil
	case "error":
		return int(log.LevelError), nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}
