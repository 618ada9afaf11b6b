package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dom/wedding-planner/internal/api"
	"github.com/dom/wedding-planner/internal/config"
	"github.com/dom/wedding-planner/internal/platform/logger"
	"github.com/dom/wedding-planner/internal/realtime"
	"github.com/dom/wedding-planner/internal/repository"
	repoPostgres "github.com/dom/wedding-planner/internal/repository/postgres"
	"github.com/dom/wedding-planner/internal/service"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
	Caps      repository.Capabilities
}

// NewTestDB starts PostgreSQL and migrates it to the latest schema.
func NewTestDB(t *testing.T) *TestDB {
	return NewTestDBAt(t, 0)
}

// NewTestDBAt migrates only up to schemaVersion (0 means latest), for
// exercising older schemas.
func NewTestDBAt(t *testing.T, schemaVersion uint) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_wedding"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(func() {
		testDB.Cleanup()
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	testDB.DSN = dsn

	db, caps, err := repoPostgres.NewConnection(dsn, schemaVersion)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	db.Logger = gormLogger.Default.LogMode(gormLogger.Silent)

	testDB.DB = db
	testDB.Caps = caps
	return testDB
}

// Repositories returns repositories bound to the test database.
func (tdb *TestDB) Repositories() *repository.Repositories {
	return repoPostgres.NewRepositories(tdb.DB, tdb.Caps)
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		ctx := context.Background()
		tdb.Container.Terminate(ctx)
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{"calendar_events", "couples", "users"}
	stmt := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	if err := tdb.DB.Exec(stmt).Error; err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "0", // Random port
		Environment:        "test",
		LogMode:            "development",
		JWTSecret:          "test-jwt-secret-key-for-testing-only",
		JWTExpirationHours: 1,
		PairingKeyLength:   8,
		KeyIssueAttempts:   10,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *realtime.Hub
	Bus      realtime.Bus
	Config   *config.Config
}

// NewTestServer creates a complete test server with all dependencies
func NewTestServer(t *testing.T) *TestServer {
	return NewTestServerAt(t, 0)
}

func NewTestServerAt(t *testing.T, schemaVersion uint) *TestServer {
	t.Helper()

	testDB := NewTestDBAt(t, schemaVersion)
	cfg := TestConfig()
	log := logger.Nop()

	repos := testDB.Repositories()

	hub := realtime.NewHub(log)
	go hub.Run()

	bus := realtime.NewLocalBus()
	if err := bus.StartForwarder(context.Background(), hub.Deliver); err != nil {
		t.Fatalf("failed to start event forwarder: %v", err)
	}

	services := service.NewServices(repos, cfg, log, bus)
	router := api.NewRouter(services, hub, log)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Bus:      bus,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
		bus.Close()
		hub.Stop()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.BaseURL(), path)
}

// WebSocketURL returns the WebSocket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + ts.BaseURL()[4:] // Replace "http" with "ws"
	return fmt.Sprintf("%s/api/v1/ws?token=%s", wsURL, token)
}
