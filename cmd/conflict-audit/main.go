package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/activitypass-api/internal/repository"
	"github.com/noah-isme/activitypass-api/internal/service"
	"github.com/noah-isme/activitypass-api/pkg/config"
	"github.com/noah-isme/activitypass-api/pkg/database"
	"github.com/noah-isme/activitypass-api/pkg/logger"
)

func main() {
	var output string
	flag.StringVar(&output, "output", "conflict_report.json", "Path where the JSON report is written")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck
	logr = logger.Named(logr, "conflict-audit")

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	auditor := service.NewConflictAuditService(repository.NewCourseEnrollmentRepository(db), logr)
	report, err := auditor.Report(ctx)
	if err != nil {
		logr.Error("audit failed", zap.Error(err))
		os.Exit(1)
	}

	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logr.Error("encode report", zap.Error(err))
		os.Exit(1)
	}
	if err := os.WriteFile(output, raw, 0o644); err != nil {
		logr.Error("write report", zap.String("path", output), zap.Error(err))
		os.Exit(1)
	}

	issues := 0
	for _, student := range report.Students {
		issues += len(student.Issues)
	}
	fmt.Printf("Checked %d students, found %d duplicate course assignments and %d schedule conflicts.\n",
		report.Aggregates.StudentCount, report.Aggregates.DuplicatePairs, report.Aggregates.ConflictPairs)
	fmt.Printf("%d issues written to %s\n", issues, output)
}
