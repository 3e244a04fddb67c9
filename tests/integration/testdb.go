//go:build integration

// Package integration runs the sync engine against a real PostgreSQL
// started with testcontainers and fake storefronts served by httptest.
package integration

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shopsync/backend/internal/infrastructure/config"
	"github.com/shopsync/backend/internal/infrastructure/migration"
	"github.com/shopsync/backend/internal/infrastructure/persistence"
)

const (
	postgresImage = "postgres:16-alpine"
	testDBName    = "shopsync_test"
)

// one container per package run; TestMain terminates it
var sharedPG struct {
	once      sync.Once
	container *tcpostgres.PostgresContainer
	cfg       config.DatabaseConfig
	err       error
}

// TestDB is a migrated connection to the package's PostgreSQL container
type TestDB struct {
	*persistence.Database
	t *testing.T
}

// NewSharedTestDB connects to the package container, starting and
// migrating it on first use. Tests sharing it call CleanTables first.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	sharedPG.once.Do(func() {
		sharedPG.cfg, sharedPG.err = startPostgres(context.Background())
		if sharedPG.err == nil {
			sharedPG.err = migrate(sharedPG.cfg)
		}
	})
	require.NoError(t, sharedPG.err, "postgres container")

	log := zap.NewNop()
	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		log = zaptest.NewLogger(t)
		level = gormlogger.Info
	}

	cfg := sharedPG.cfg
	db, err := persistence.NewDatabase(&cfg, persistence.WithZapLogger(log, level, 0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &TestDB{Database: db, t: t}
}

func startPostgres(ctx context.Context) (config.DatabaseConfig, error) {
	container, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase(testDBName),
		tcpostgres.WithUsername("shopsync"),
		tcpostgres.WithPassword("shopsync"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return config.DatabaseConfig{}, fmt.Errorf("start postgres: %w", err)
	}
	sharedPG.container = container

	host, err := container.Host(ctx)
	if err != nil {
		return config.DatabaseConfig{}, err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return config.DatabaseConfig{}, err
	}

	return config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "shopsync",
		Password:        "shopsync",
		DBName:          testDBName,
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 1,
	}, nil
}

// migrate applies the embedded schema once per container
func migrate(cfg config.DatabaseConfig) error {
	db, err := persistence.NewDatabase(&cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, "", zap.NewNop())
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	return m.Up()
}

// CleanTables empties every sync table, keeping the migration history
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename NOT LIKE '%schema_migrations'`).Scan(&tables).Error
	require.NoError(tdb.t, err)
	if len(tables) == 0 {
		return
	}
	require.NoError(tdb.t, tdb.DB.Exec("TRUNCATE TABLE "+strings.Join(tables, ", ")+" RESTART IDENTITY CASCADE").Error)
}

// CleanupSharedContainer terminates the package container, if started
func CleanupSharedContainer() {
	if sharedPG.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = sharedPG.container.Terminate(ctx)
	sharedPG.container = nil
}
