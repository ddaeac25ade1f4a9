// Seeds a development database with a small catalog: one noop provider, the
// YouTube service lineup with a starter package each, and a demo coupon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"smm-panel/internal/config"
	"smm-panel/internal/domain"
	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/repository"
	pg "smm-panel/internal/infra/db/postgres"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	providers := pg.NewProviderRepo(pool)
	services := pg.NewServiceRepo(pool)
	packages := pg.NewPackageRepo(pool)
	coupons := pg.NewCouponRepo(pool)

	provider := &model.Provider{
		ID:     domain.NewUUID(),
		Name:   "Dev Panel",
		Slug:   "noop",
		APIURL: "http://localhost/noop",
		APIKey: "dev",
		Active: true,
	}
	if err := providers.Save(ctx, repository.NoTX, provider); err != nil {
		log.Fatalf("seed provider: %v", err)
	}

	lineup := []struct {
		name  string
		slug  string
		typ   model.ServiceType
		price string
		min   int
		max   int
	}{
		{"YouTube Views", "yt-views", model.ServiceTypeViews, "9.99", 1000, 10000},
		{"YouTube Subscribers", "yt-subscribers", model.ServiceTypeSubscribers, "24.99", 100, 1000},
		{"YouTube Watch Time", "yt-watch-time", model.ServiceTypeWatchTime, "49.99", 100, 4000},
		{"YouTube Likes", "yt-likes", model.ServiceTypeLikes, "4.99", 100, 5000},
		{"YouTube Comments", "yt-comments", model.ServiceTypeComments, "14.99", 10, 500},
	}

	for i, s := range lineup {
		svc := &model.Service{
			ID:     domain.NewUUID(),
			Name:   s.name,
			Slug:   s.slug,
			Type:   s.typ,
			Active: true,
		}
		if err := services.Save(ctx, repository.NoTX, svc); err != nil {
			log.Fatalf("seed service %s: %v", s.slug, err)
		}

		pkg := &model.Package{
			ID:                domain.NewUUID(),
			ServiceID:         svc.ID,
			Name:              fmt.Sprintf("%s Starter", s.name),
			Price:             decimal.RequireFromString(s.price),
			Currency:          "USD",
			MinQuantity:       s.min,
			MaxQuantity:       s.max,
			ProviderID:        provider.ID,
			ProviderServiceID: fmt.Sprintf("%d", 100+i),
			Active:            true,
		}
		if err := packages.Save(ctx, repository.NoTX, pkg); err != nil {
			log.Fatalf("seed package %s: %v", pkg.Name, err)
		}
		fmt.Printf("seeded %s (package %s)\n", svc.Name, pkg.ID)
	}

	coupon := &model.Coupon{
		ID:         domain.NewUUID(),
		Code:       "WELCOME10",
		Type:       model.CouponTypePercentage,
		Value:      decimal.NewFromInt(10),
		Active:     true,
		UsageLimit: 0,
	}
	if err := coupons.Save(ctx, repository.NoTX, coupon); err != nil {
		log.Fatalf("seed coupon: %v", err)
	}
	fmt.Println("seeded coupon WELCOME10")
}
