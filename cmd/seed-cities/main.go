// README: Seeds the default pickup cities into Firestore and refreshes the Redis city index.
package main

import (
	"context"
	"log"
	"time"

	"github.com/pepemlv/partysavingrental/internal/config"
	"github.com/pepemlv/partysavingrental/internal/infra"
	"github.com/pepemlv/partysavingrental/internal/logger"
	"github.com/pepemlv/partysavingrental/internal/modules/catalog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatal(err)
	}
	fs, err := infra.NewFirestore(ctx, app)
	if err != nil {
		log.Fatal(err)
	}
	defer fs.Close()

	var index catalog.CityIndex
	if rdb, err := infra.NewRedis(ctx, cfg.Redis.Addr); err != nil {
		logger.Warn("redis unavailable, city index not refreshed", "error", err)
	} else {
		defer rdb.Close()
		index = catalog.NewGeoIndex(rdb)
	}

	svc := catalog.NewService(catalog.NewStore(fs), index)
	n, err := svc.SeedDefaultCities(ctx)
	if err != nil {
		log.Fatalf("seed cities: %v", err)
	}
	logger.Info("seeded cities", "created", n, "defaults", len(catalog.DefaultCities))
}
