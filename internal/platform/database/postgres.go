package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"fintech_index/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

var DB *sql.DB

func Connect() {
	var err error
	DB, err = sql.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err = DB.Ping(); err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	fmt.Println("Successfully connected to PostgreSQL database!")
}

// EnsureSchema creates the tables the service needs if they are missing.
// The compound unique index on (country_code, year) backs the duplicate
// detection for country data records.
func EnsureSchema() {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			hashed_password TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'viewer',
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS country_data (
			id TEXT PRIMARY KEY,
			country_code TEXT NOT NULL,
			name TEXT NOT NULL,
			literacy_rate DOUBLE PRECISION NOT NULL,
			digital_infrastructure DOUBLE PRECISION NOT NULL,
			investment DOUBLE PRECISION NOT NULL,
			final_score DOUBLE PRECISION NOT NULL,
			year INT NOT NULL,
			population BIGINT,
			gdp DOUBLE PRECISION,
			fintech_companies INT,
			created_by TEXT,
			updated_by TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT country_data_code_year_key UNIQUE (country_code, year)
		)`,
		`CREATE TABLE IF NOT EXISTS startups (
			id TEXT PRIMARY KEY,
			slug TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			country TEXT NOT NULL,
			sector TEXT NOT NULL,
			founded_year INT NOT NULL,
			description TEXT,
			website TEXT,
			added_by TEXT,
			added_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := DB.Exec(stmt); err != nil {
			log.Fatalf("Error ensuring schema: %v", err)
		}
	}
}

func Close() {
	if DB != nil {
		DB.Close()
		fmt.Println("Database connection closed.")
	}
}
