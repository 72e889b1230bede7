package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"hyperstack/internal/logging"
	"hyperstack/internal/models"
	"hyperstack/internal/pipeline"
	"hyperstack/pkg/config"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "hyperstack.yaml", "Configuration file (.yaml or .toml)")
	jobPath := flag.String("job", "", "Job file describing the operation to run (.yaml or .toml)")
	writeDefault := flag.String("write-default-config", "", "Write a default configuration to this path and exit")
	numCores := flag.Int("cores", 0, "Number of goroutines copying planes (default: from config)")
	verbose := flag.Bool("verbose", false, "Log debug output")
	flag.Parse()

	if *writeDefault != "" {
		if err := config.CreateDefaultConfigFile(*writeDefault); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *writeDefault)
		return
	}

	if *jobPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *numCores > 0 {
		cfg.Processing.NumCores = *numCores
	}
	if *verbose {
		cfg.Output.Verbose = true
	}

	logging.Setup(cfg.Log)
	defer logging.Shutdown()
	logging.SetVerbose(cfg.Output.Verbose)

	job, err := models.LoadJob(*jobPath)
	if err != nil {
		logging.Errorf("%v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	startTime := time.Now()
	results, err := pipeline.NewRunner(cfg).Run(ctx, job)
	if err != nil {
		logging.Errorf("Job %q failed: %v", job.Name, err)
		logging.Shutdown()
		os.Exit(1)
	}

	fmt.Printf("%s completed in %.2f seconds\n", job.Operation, time.Since(startTime).Seconds())
	fmt.Printf("%d result(s) saved to: %s\n", len(results), job.Output)
}
