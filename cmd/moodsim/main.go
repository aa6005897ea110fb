package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/ericggul/moodscape/internal/simdrive"
)

// Default configuration constants.
const (
	defaultUsers         = 8
	defaultVoicesPerUser = 3
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 10 * time.Second
	defaultQuietWait     = 3 * time.Second
	defaultRunTimeout    = 5 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9090", "Base URL of the orchestrator")
		users     = flag.Int("users", defaultUsers, "Number of simulated participants")
		voices    = flag.Int("voices", defaultVoicesPerUser, "Spoken inputs per participant")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		quietWait = flag.Duration("wait", defaultQuietWait, "Settle time after the last voice event")
		reset     = flag.Bool("reset", false, "Issue a soft reset before the run")
		logFile   = flag.String("log", "", "Log file for run output (default: simdrive_TIMESTAMP.log)")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simdrive.ShowHelp()
		return
	}

	if err := simdrive.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &simdrive.Config{
		BaseURL:       *baseURL,
		NumUsers:      *users,
		VoicesPerUser: *voices,
		Workers:       *workers,
		Timeout:       *timeout,
		QuietWait:     *quietWait,
		LogFile:       *logFile,
		Reset:         *reset,
		Verbose:       *verbose,
	}

	if err := simdrive.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Run failed: " + err.Error() + "\n")
		return
	}
}
