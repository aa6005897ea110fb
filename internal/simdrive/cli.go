package simdrive

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/ericggul/moodscape/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "simdrive_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the session drive tool.
func ShowHelp() {
	os.Stdout.WriteString(`Moodscape Session Drive
=======================

Drives a running moodscape orchestrator with simulated participants:
each one joins, picks a name, and speaks a scripted set of utterances,
then the tool waits for the decision rounds to settle and verifies the
shared environment.

Usage:
  go run cmd/moodsim/main.go [options]

Options:
  -url string
        Base URL of the orchestrator (default "http://localhost:9090")
  -users int
        Number of simulated participants (default 8)
  -voices int
        Spoken inputs per participant (default 3)
  -workers int
        Number of concurrent workers (default 2x CPU count)
  -timeout duration
        HTTP request timeout (default 10s)
  -wait duration
        Settle time after the last voice event (default 3s)
  -reset
        Issue a soft reset before the run
  -log string
        Log file for run output (default: simdrive_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help
`)
}
