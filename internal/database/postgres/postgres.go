package postgres

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"coi-service/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var DBStatus bool

func ConnectAndCreateDB(cfg config.PostgresConfig) (*sqlx.DB, error) {
	defaultConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=postgres sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	defaultDB, err := sql.Open("postgres", defaultConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to default postgres db: %w", err)
	}
	defer defaultDB.Close()

	var exists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	err = defaultDB.QueryRow(checkQuery, cfg.DBname).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		createQuery := fmt.Sprintf(`CREATE DATABASE "%s"`, cfg.DBname)
		_, err = defaultDB.Exec(createQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to create database %s: %w", cfg.DBname, err)
		}
		slog.Info("Database created", "dbname", cfg.DBname)
	}

	targetConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.DBname)

	db, err := sqlx.Connect("postgres", targetConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to target database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping target database: %w", err)
	}

	if !exists {
		if err := executeSchema(db); err != nil {
			// Schema setup can be performed manually; keep the connection.
			slog.Warn("Failed to execute schema.sql", "error", err)
		}
	}

	DBStatus = true
	return db, nil
}

// executeSchema reads and executes the schema.sql file.
func executeSchema(db *sqlx.DB) error {
	schemaLocations := []string{
		"schema.sql",
		"./schema.sql",
		"/app/schema.sql",
		filepath.Join(os.Getenv("PWD"), "schema.sql"),
	}

	var schemaPath string
	for _, location := range schemaLocations {
		if _, err := os.Stat(location); err == nil {
			schemaPath = location
			break
		}
	}
	if schemaPath == "" {
		return fmt.Errorf("schema.sql not found in any expected locations: %v", schemaLocations)
	}

	schemaContent, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema.sql from %s: %w", schemaPath, err)
	}

	slog.Info("Executing schema", "path", schemaPath)

	statements := strings.Split(string(schemaContent), ";")
	successCount := 0
	for i, statement := range statements {
		statement = strings.TrimSpace(statement)
		if statement == "" || strings.HasPrefix(statement, "--") {
			continue
		}
		if _, err := db.Exec(statement); err != nil {
			slog.Warn("Failed to execute schema statement", "index", i+1, "error", err)
			continue
		}
		successCount++
	}

	slog.Info("Schema execution completed", "statements", successCount)
	return nil
}

// ConnectWithRetry blocks until the database is reachable, retrying on a
// fixed interval. Startup must not wire repositories against a handle that
// does not exist yet, so this returns only with a live connection.
func ConnectWithRetry(cfg config.PostgresConfig, waitAmount time.Duration) *sqlx.DB {
	return connectWithRetry(func() (*sqlx.DB, error) {
		return ConnectAndCreateDB(cfg)
	}, waitAmount)
}

func connectWithRetry(connect func() (*sqlx.DB, error), waitAmount time.Duration) *sqlx.DB {
	for {
		db, err := connect()
		if err == nil {
			DBStatus = true
			return db
		}
		log.Printf("failed to connect database: %s, next retry in %v", err, waitAmount)
		time.Sleep(waitAmount)
	}
}
