/**
 * @description
 * This is the main entry point for the account-service. Its responsibility is
 * to initialize all components and supervise the two halves of the service:
 * the HTTP API (account provisioning + payment callbacks) and the background
 * consumer that projects wallet.created events into the wallet registry.
 *
 * Key features:
 * - Loads application configuration from environment variables.
 * - Runs schema migrations, then opens the PostgreSQL connection pool.
 * - Wires the repositories, the event publisher, and the application service.
 * - Starts the message consumer with reconnect-and-resume semantics and
 *   implements graceful shutdown for both halves.
 *
 * @dependencies
 * - The service's internal packages for config, app logic, storage, and API.
 * - pgxpool for database access, golang-migrate for migrations, godotenv for
 *   local config, and rabbitmq for messaging.
 */
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/lipaflow/account-service/internal/api"
	"github.com/lipaflow/account-service/internal/app"
	"github.com/lipaflow/account-service/internal/config"
	"github.com/lipaflow/account-service/internal/domain"
	"github.com/lipaflow/account-service/internal/store"
	"github.com/lipaflow/account-service/pkg/rabbitmq"
)

const walletCreatedQueue = "account-service-wallet-created"

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load application configuration.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	// Apply schema migrations before anything touches the tables.
	if err := runMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Establish the database connection pool.
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database URL: %v", err)
	}
	dbConfig.MaxConns = 25
	dbConfig.MinConns = 5
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute
	dbConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer dbpool.Close()
	log.Println("Database connection established")

	// Set up dependencies.
	registryRepo := store.NewPostgresWalletRegistryRepository(dbpool)
	accountRepo := store.NewPostgresAccountRepository(dbpool, cfg.AccountNoPadding)
	paymentRepo := store.NewPostgresPaymentReferenceRepository(dbpool)

	publisher, err := rabbitmq.NewEventPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	if err != nil {
		log.Fatalf("Invalid RabbitMQ URL: %v", err)
	}
	defer publisher.Close()
	// Declare eagerly so broker problems surface at startup; publishes will
	// lazily reconnect, so a failure here is not fatal.
	if err := publisher.DeclareExchange(); err != nil {
		log.Printf("WARN: RabbitMQ exchange declare failed, will retry on publish: %v", err)
	}

	accountService := app.NewAccountService(accountRepo, paymentRepo, publisher)
	walletHandler := app.NewWalletEventHandler(registryRepo)

	// Start the wallet.created projection in a supervised goroutine.
	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Invalid RabbitMQ URL: %v", err)
	}
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		log.Printf("Starting consumer for event '%s'...", domain.EventWalletCreated)
		consumer.Run(consumerCtx, cfg.RabbitMQExchange, walletCreatedQueue, domain.EventWalletCreated, walletHandler.HandleWalletCreatedEvent)
	}()

	// Setup and start HTTP server.
	router := api.NewRouter(cfg, accountService)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s", err)
		}
	}()

	log.Println("Account service is running with API and event consumer.")

	// Wait for termination signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down account-service...")

	// Stop the consumer first so no message is half-processed when the pool closes.
	stopConsumer()
	select {
	case <-consumerDone:
	case <-time.After(10 * time.Second):
		log.Println("WARN: Consumer did not stop within deadline")
	}

	// Create a context with a timeout for shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the HTTP server.
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// runMigrations applies all pending migrations from the migrations directory
// over a short-lived database/sql connection.
func runMigrations(databaseURL string) error {
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer migrationDB.Close()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := migratepg.WithInstance(migrationDB, &migratepg.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	log.Println("Database migrations applied")
	return nil
}
