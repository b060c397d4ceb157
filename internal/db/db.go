package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// sqlitePragmas are applied to every SQLite connection. Milestones rely on
// foreign keys for cascading deletes.
var sqlitePragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
}

// Init opens and pings the database. For SQLite the data directory is
// created and the connection pragmas are added to the DSN.
func Init(driver, connection string) (*sqlx.DB, error) {
	if driver == DriverSQLite {
		path, _, _ := strings.Cut(connection, "?")
		path = strings.TrimPrefix(path, "file:")
		if path != ":memory:" {
			err := os.MkdirAll(filepath.Dir(path), 0755)
			if err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		connection = withPragmas(connection)
	}

	db, err := sqlx.Connect(driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if driver == DriverSQLite && strings.Contains(connection, ":memory:") {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connected", "driver", driver)
	return db, nil
}

func withPragmas(connection string) string {
	var params []string
	if !strings.Contains(connection, "_time_format=") {
		// Sortable text timestamps.
		params = append(params, "_time_format=sqlite")
	}
	for _, p := range sqlitePragmas {
		name, _, _ := strings.Cut(p, "(")
		if strings.Contains(connection, "_pragma="+name) {
			continue
		}
		params = append(params, "_pragma="+p)
	}
	if len(params) == 0 {
		return connection
	}

	sep := "?"
	if strings.Contains(connection, "?") {
		sep = "&"
	}
	return connection + sep + strings.Join(params, "&")
}

func Close(db *sqlx.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
