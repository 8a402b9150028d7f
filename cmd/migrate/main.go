package main

import (
	"context"
	"log"

	"peoples-bill-be/internal/config"
	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/model"
	"peoples-bill-be/internal/pkg/logger"
	"peoples-bill-be/internal/repository/unitofwork"
	"peoples-bill-be/internal/service"
	"peoples-bill-be/pkg/database"
	"peoples-bill-be/pkg/region"

	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, gormlogger.Warn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	ctx := context.Background()

	log.Println("Step 1: Setting up extensions...")
	for _, sql := range []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	} {
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: Failed to execute setup SQL: %v", err)
		}
	}

	log.Println("Step 2: Running AutoMigrate...")
	models := []interface{}{
		&model.Region{},
		&model.Cluster{},
		&model.Submission{},
		&model.BillClause{},
		&model.Vote{},
		&model.ClusteringRun{},
		&model.AdminUser{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Step 3: Creating indexes...")
	for _, sql := range []string{
		`CREATE INDEX IF NOT EXISTS idx_submissions_unclustered ON submissions (created_at) WHERE cluster_id IS NULL AND status <> 'rejected';`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_content_search ON submissions USING gin (to_tsvector('simple', normalized_content));`,
	} {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to create index: %v", err)
		}
	}

	log.Println("Step 4: Seeding regions and the default admin...")
	uowFactory := unitofwork.NewRepositoryFactory(db)
	if err := uowFactory.NewUnitOfWork(ctx).RegionRepository().Upsert(ctx, region.All()); err != nil {
		log.Fatalf("Error: Failed to seed regions: %v", err)
	}

	if cfg.App.AdminPassword == "" {
		log.Println("Info: ADMIN_PASSWORD not set, skipping admin account")
	} else {
		auth := service.NewAuthService(uowFactory, cfg.App.JWTSecret, cfg.App.JWTExpiry, logger.NewNop())
		created, err := auth.EnsureAdmin(ctx, cfg.App.AdminUsername, cfg.App.AdminPassword, entity.AdminRoleAdmin)
		if err != nil {
			log.Fatalf("Error: Failed to create admin account: %v", err)
		}
		if created {
			log.Printf("Created admin account %q", cfg.App.AdminUsername)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
