package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/activitypass-api/internal/dto"
	"github.com/noah-isme/activitypass-api/internal/repository"
	"github.com/noah-isme/activitypass-api/internal/service"
	"github.com/noah-isme/activitypass-api/pkg/cache"
	"github.com/noah-isme/activitypass-api/pkg/config"
	"github.com/noah-isme/activitypass-api/pkg/database"
	"github.com/noah-isme/activitypass-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var (
		recordsPath  string
		manualPath   string
		randomMin    int
		randomMax    int
		skipExisting bool
		seed         int64
		dryRun       bool
	)
	flag.StringVar(&recordsPath, "records", "", "Path to JSON course records file")
	flag.StringVar(&manualPath, "manual", "", "Path to JSON manual assignments file")
	flag.IntVar(&randomMin, "random-min", cfg.Seeder.RandomMin, "Minimum random courses per student without explicit courses")
	flag.IntVar(&randomMax, "random-max", cfg.Seeder.RandomMax, "Maximum random courses per student without explicit courses")
	flag.BoolVar(&skipExisting, "skip-existing", cfg.Seeder.SkipExisting, "Skip students that already have enrollments")
	flag.Int64Var(&seed, "seed", cfg.Seeder.RandomSeed, "Random seed (0 uses the current time)")
	flag.BoolVar(&dryRun, "dry-run", false, "Plan assignments without writing")
	flag.Parse()

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck
	logr = logger.Named(logr, "seeder")

	req := dto.SeedRequest{
		RandomMin:    randomMin,
		RandomMax:    randomMax,
		SkipExisting: skipExisting,
		Seed:         seed,
		DryRun:       dryRun,
	}
	if recordsPath != "" {
		if err := loadJSON(recordsPath, &req.Records); err != nil {
			logr.Fatal("failed to load records", zap.String("path", recordsPath), zap.Error(err))
		}
	}
	if manualPath != "" {
		if err := loadJSON(manualPath, &req.Manual); err != nil {
			logr.Fatal("failed to load manual assignments", zap.String("path", manualPath), zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, course event cache will not be invalidated", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metricsSvc, cfg.CourseEvents.CacheTTL, logr, redisClient != nil)
	seeder := service.NewEnrollmentSeedService(
		db,
		repository.NewTermRepository(db),
		repository.NewCourseRepository(db),
		repository.NewStudentRepository(db),
		repository.NewCourseEnrollmentRepository(db),
		cacheSvc,
		metricsSvc,
		cfg.Campus.Location(),
		validator.New(),
		logr,
	)

	summary, err := seeder.Seed(ctx, req)
	if err != nil {
		logr.Error("seeding failed", zap.Error(err))
		os.Exit(1)
	}
	printSummary(summary)
}

func loadJSON(path string, dest interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func printSummary(s *dto.SeedSummary) {
	mode := "applied"
	if s.DryRun {
		mode = "dry run"
	}
	fmt.Printf("Seeding %s: %d students, %d terms, %d courses\n", mode, s.Students, s.TermsUpserted, s.CoursesUpserted)
	fmt.Printf("Accepted %d (inserted %d), rejected %d, skipped %d\n", s.Accepted, s.Inserted, s.Rejected, s.Skipped)
	for source, n := range s.BySource {
		fmt.Printf("  %-8s %d\n", source, n)
	}
	for _, r := range s.Rejections {
		fmt.Printf("  rejected %s %s (%s): %s\n", r.StudentID, r.CourseCode, r.Source, r.Reason)
	}
}
