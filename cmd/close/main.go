package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rpattn/finclose/internal/config"
	"github.com/rpattn/finclose/internal/db"
	"github.com/rpattn/finclose/internal/ingestion"
	"github.com/rpattn/finclose/internal/pipeline"
	"github.com/rpattn/finclose/internal/repository"
	"github.com/rpattn/finclose/internal/schema"
)

func main() {
	var (
		month      = flag.String("month", "", "target period as YYYY-MM (required)")
		failOn     = flag.String("fail-on", "", "halt policy: ERROR, WARN or NEVER (default from config)")
		configPath = flag.String("config", ".", "directory containing config.yaml")
	)
	flag.Parse()

	if *month == "" {
		fmt.Fprintln(os.Stderr, "usage: close --month YYYY-MM [--fail-on ERROR|WARN|NEVER]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	policy := cfg.Close.FailOn
	if *failOn != "" {
		policy = *failOn
	}

	ctx := context.Background()

	opts := []pipeline.Option{}
	if cfg.Database.Enabled {
		conn, connErr := db.NewConnection(ctx, cfg.Database)
		if connErr != nil {
			log.Fatalf("Failed to connect to database: %v", connErr)
		}
		defer conn.Close()

		if migErr := db.RunMigrations(cfg.Data.MigrationsDir, cfg.Database); migErr != nil {
			log.Fatalf("Failed to run migrations: %v", migErr)
		}
		opts = append(opts, pipeline.WithRepository(repository.NewCloseRunRepository(conn.Pool)))
	}

	loader := ingestion.NewLoader(cfg.Data.RawDir, cfg.Data.ReferenceDir)
	schemas := schema.ForKinds(cfg.Close.AllowedCurrencies, cfg.Close.BaseCurrency)
	orchestrator := pipeline.NewOrchestrator(loader, schemas, cfg.Data.CuratedDir, cfg.Close.BaseCurrency, opts...)

	outcome, err := orchestrator.Run(ctx, pipeline.RunRequest{Period: *month, FailOn: policy})
	if err != nil {
		var halt *pipeline.HaltError
		if errors.As(err, &halt) {
			printSummary(outcome)
			fmt.Fprintln(os.Stderr, halt.Error())
			os.Exit(1)
		}
		log.Fatalf("Close run failed: %v", err)
	}

	printSummary(outcome)
	fmt.Printf("close complete for %s (status=%s)\n", outcome.Period, outcome.OverallStatus)
	if outcome.Curated != nil {
		fmt.Printf("curated outputs: %s, %s, %s\n",
			outcome.Curated.Fact, outcome.Curated.DimAccounts, outcome.Curated.KPI)
	}
}

func printSummary(outcome pipeline.Outcome) {
	fmt.Printf("%-22s %8s %8s %8s %8s\n", "dataset", "errors", "warns", "issues", "status")
	for _, row := range outcome.Summary {
		fmt.Printf("%-22s %8d %8d %8d %8s\n",
			row.Dataset, row.ErrorCount, row.WarnCount, row.IssueCount, row.Status)
	}
	fmt.Printf("audit trail: %s, %s, %s\n",
		outcome.Audit.Exceptions, outcome.Audit.Summary, outcome.Audit.Workbook)
}
