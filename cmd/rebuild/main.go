// Command rebuild recomputes a user's profile aggregate from the surviving
// activity rows. Intended for operational recovery after manual data fixes.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/stride/internal/config"
	"example.com/stride/internal/logger"
	persistence "example.com/stride/internal/persistence/postgres"
)

func main() {
	userID := flag.String("user", "", "user id whose profile stats to rebuild")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.New(0).Fatal("failed to load config", "error", err)
	}
	log := logger.New(cfg.LogLevel)

	if *userID == "" {
		log.Fatal("missing required flag -user")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to connect to postgres", "error", err)
	}
	defer pool.Close()

	repo := persistence.NewRepository(pool)
	stats, err := repo.RebuildProfile(ctx, *userID)
	if err != nil {
		log.Fatal("rebuild failed", "user_id", *userID, "error", err)
	}

	log.Info("profile stats rebuilt",
		"user_id", *userID,
		"total_activities", stats.TotalActivities,
		"total_distance_km", stats.TotalDistanceKm,
		"total_time_min", stats.TotalTimeMin,
		"avg_speed_kmh", stats.AvgSpeedKmh,
		"longest_run_km", stats.LongestRunKm,
	)
}
