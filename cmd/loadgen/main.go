package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/riskpoll/internal/loadgen"
	"github.com/okian/riskpoll/pkg/logger"
)

// Default configuration constants.
const (
	defaultSubmissions = 1000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 10 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:3000", "Base URL of the service")
		submissions = flag.Int("submissions", defaultSubmissions, "Number of submissions to generate and send")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent senders")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile  = flag.String("output", "", "Write generated submissions to this JSON file")
		logFile     = flag.String("log", "", "Also write logs to this file")
		metricsAddr = flag.String("metrics-addr", "", "Serve queue and worker metrics on this address during the run")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp(os.Stdout)
		return
	}

	closeLog, err := loadgen.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &loadgen.Config{
		BaseURL:     *baseURL,
		Submissions: *submissions,
		Workers:     *workers,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		Verbose:     *verbose,
		MetricsAddr: *metricsAddr,
	}

	log := logger.Named("loadgen")
	if _, err := loadgen.Run(ctx, cfg, log); err != nil {
		log.Error(ctx, "load run failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
