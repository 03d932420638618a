package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/shop-api/internal/handler"
	"github.com/xenking/shop-api/internal/seed"
	"github.com/xenking/shop-api/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		fixtureFile string
		jwtSecret   string
		tokenTTL    time.Duration
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&fixtureFile, "fixture", "db/seed/shop.json", "path to the JSON fixture, optionally .gz compressed")
	flag.StringVar(&jwtSecret, "jwt-secret", "", "secret for printed bearer tokens (or SHOP_JWT_SECRET env)")
	flag.DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "lifetime of printed bearer tokens")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}
	if jwtSecret == "" {
		jwtSecret = os.Getenv("SHOP_JWT_SECRET")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, fixtureFile, jwtSecret, tokenTTL); err != nil {
		lg.Error("Seed failed", zap.Error(err))
		cancel()
		os.Exit(1)
	}

	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, fixtureFile, jwtSecret string, ttl time.Duration) error {
	lg.Info("Reading fixture", zap.String("path", fixtureFile))
	f, err := seed.Load(fixtureFile)
	if err != nil {
		return errors.Wrap(err, "load fixture")
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := f.Apply(ctx, postgres.NewSeeder(pool)); err != nil {
		return errors.Wrap(err, "apply fixture")
	}
	lg.Info("Upserted fixture",
		zap.Int("users", len(f.Users)),
		zap.Int("shipments", len(f.Shipments)),
		zap.Int("products", len(f.Products)),
		zap.Int("carts", len(f.Carts)),
	)

	if jwtSecret == "" {
		lg.Info("No JWT secret given, skipping tokens")
		return nil
	}
	for _, u := range f.Users {
		token, err := handler.IssueToken([]byte(jwtSecret), u.ID, ttl)
		if err != nil {
			return errors.Wrapf(err, "issue token for %s", u.ID)
		}
		fmt.Printf("%s\t%s\t%s\n", u.ID, u.Role, token)
	}
	return nil
}
