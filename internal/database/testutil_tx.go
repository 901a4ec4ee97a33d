package database

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDatabaseURLEnv names the variable integration tests read their
// connection string from.
const TestDatabaseURLEnv = "TEST_DATABASE_URL"

var (
	sharedPool     *pgxpool.Pool
	sharedPoolOnce sync.Once
	sharedPoolErr  error
)

// TestPool returns the migrated pool shared by every integration test in the
// binary, skipping the test when no database is configured.
func TestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv(TestDatabaseURLEnv)
	if url == "" {
		t.Skipf("%s not set, skipping integration test", TestDatabaseURLEnv)
	}

	sharedPoolOnce.Do(func() {
		ctx := context.Background()
		if sharedPool, sharedPoolErr = Connect(ctx, url); sharedPoolErr == nil {
			sharedPoolErr = Migrate(ctx, sharedPool)
		}
	})
	if sharedPoolErr != nil {
		t.Fatalf("test database: %v", sharedPoolErr)
	}
	return sharedPool
}

// TestTx hands out a transaction that is rolled back on cleanup, so account
// and purchase rows written by one test never leak into another.
//
//	accounts := repository.NewAccountRepository(database.TestTx(t))
func TestTx(t *testing.T) PGXDB {
	t.Helper()

	tx, err := TestPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin test transaction: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}
