package e2e_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	testDSNOnce sync.Once
	testCleanup func()
	testDSN     string
)

// getSharedPostgresDatabase returns the DSN of a PostgreSQL container shared
// by all E2E tests.
func getSharedPostgresDatabase(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres e2e test in short mode")
	}

	testDSNOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}

		testCleanup = func() {
			if err := testcontainers.TerminateContainer(pgContainer); err != nil {
				fmt.Fprintf(os.Stderr, "failed to terminate container: %s\n", err)
			}
		}

		connectionStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			testCleanup()
			t.Fatalf("failed to get connection string: %v", err)
		}

		testDSN = connectionStr
	})

	if testDSN == "" {
		t.Fatal("postgres container unavailable")
	}

	return testDSN
}
