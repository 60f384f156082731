package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/tuitionpay/escrowhub/db"
	"github.com/tuitionpay/escrowhub/lib"
	"github.com/tuitionpay/escrowhub/lib/service"
)

// script to compare the custody balance with the deposited payments in the database.
// Exits with status 1 when they diverge.
func main() {

	c := &service.Config{}

	// Load configruation from environment variables
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	// Setup logging to STDOUT or a configrued log file
	logger := lib.Logger(c.LogFilePath)
	if c.UsesMemoryStore() {
		logger.Fatal("custody reconciliation needs a postgres DATABASE_URI")
	}

	if c.SentryDSN != "" {
		if err = sentry.Init(sentry.ClientOptions{Dsn: c.SentryDSN}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ledgerStore, dbConn, err := db.OpenStore(ctx, c)
	if err != nil {
		logger.Fatalf("Error opening ledger store: %v", err)
	}
	defer dbConn.Close()

	svc, _, err := service.NewStablecoinLedger(ctx, c, ledgerStore, logger)
	if err != nil {
		logger.Fatalf("Error loading the ledger: %v", err)
	}

	report, err := svc.AuditCustody(ctx)
	if err != nil {
		sentry.CaptureException(err)
		logger.Fatalf("Error building custody report: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		logger.Fatal(err)
	}
	if report.Diverged {
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}
}
