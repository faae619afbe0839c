package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"overseas-housing/internal/config"
	"overseas-housing/internal/db"
)

func TestPgStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	if os.Getenv("TESTCONTAINERS") == "" {
		t.Skip("TESTCONTAINERS not set; skipping postgres container test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("housing"),
		postgres.WithUsername("housing"),
		postgres.WithPassword("housing"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = pgContainer.Terminate(context.Background()) })

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("resolve connection string: %v", err)
	}

	pool, err := db.NewPool(ctx, &config.Config{DatabaseURL: dsn})
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	if err := db.MigratePostgres(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	runStoreSuite(t, NewPgStore(pool))
}
