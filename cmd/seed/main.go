package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"hotspot-pix-portal/internal/config"
	pg "hotspot-pix-portal/internal/infra/db/postgres"
	"hotspot-pix-portal/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("database.url is required to seed plans")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planUC := usecase.NewPlanUseCase(pg.NewPlanRepo(pool))

	// If plans already exist, do nothing
	plans, err := planUC.List(ctx)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (minutes=%d, price=%d centavos)\n", p.Label, p.DurationMinutes, p.PriceCents)
		}
		return
	}

	// Default catalog of the portal
	seed := []struct {
		ID      string
		Label   string
		Minutes int
		Price   int64
	}{
		{"30min", "30 min", 30, 200},
		{"1h", "1 hora", 60, 300},
		{"2h", "2 horas", 120, 500},
		{"4h", "4 horas", 240, 800},
		{"8h", "8 horas", 480, 1200},
	}

	for _, s := range seed {
		p, err := planUC.Create(ctx, s.ID, s.Label, s.Minutes, s.Price)
		if err != nil {
			log.Fatalf("create plan %s: %v", s.ID, err)
		}
		fmt.Printf("created plan %s (minutes=%d, price=%d centavos)\n", p.Label, p.DurationMinutes, p.PriceCents)
	}
}
