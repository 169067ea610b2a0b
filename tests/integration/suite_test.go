package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/harborfin/taxlot/internal/db"
	"github.com/harborfin/taxlot/internal/models"
)

var suiteDB *db.DB

// TestMain starts one PostgreSQL container shared by the whole package.
func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get connection string: %v\n", err)
		os.Exit(1)
	}

	gormDB, err := gorm.Open(postgres.Open(connStr), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	suiteDB = &db.DB{DB: gormDB}

	if err := suiteDB.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	_ = suiteDB.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

// resetTables clears all rows between tests sharing the suite container.
func resetTables(t *testing.T) {
	t.Helper()
	if err := suiteDB.Exec("DELETE FROM lot_selections").Error; err != nil {
		t.Fatalf("failed to clear lot_selections: %v", err)
	}
	if err := suiteDB.Exec("DELETE FROM transactions").Error; err != nil {
		t.Fatalf("failed to clear transactions: %v", err)
	}
}

func TestDatabaseConnection(t *testing.T) {
	if err := suiteDB.Health(); err != nil {
		t.Fatalf("Database health check failed: %v", err)
	}

	if !suiteDB.Migrator().HasTable(&models.Transaction{}) {
		t.Fatal("transactions table missing after migration")
	}
	if !suiteDB.Migrator().HasTable(&models.LotSelection{}) {
		t.Fatal("lot_selections table missing after migration")
	}
}
