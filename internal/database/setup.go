package database

import (
	"chatapp-client/internal/models"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	SQLite Dialect = "sqlite"
	MySQL  Dialect = "mysql"
)

func setPragmaValues(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}

	// these next 2 extremely speed up performance of sqlite
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return err
	}

	if _, err := db.Exec("PRAGMA synchronous = normal"); err != nil {
		return err
	}

	return nil
}

func readPragmaValues(db *sql.DB, sugar *zap.SugaredLogger) error {
	var journalModeValue string
	err := db.QueryRow("PRAGMA journal_mode").Scan(&journalModeValue)
	if err != nil {
		return err
	}

	var synchronousValue int
	err = db.QueryRow("PRAGMA synchronous").Scan(&synchronousValue)
	if err != nil {
		return err
	}

	var synchronousValueStr string
	switch synchronousValue {
	case 0:
		synchronousValueStr = "off"
	case 1:
		synchronousValueStr = "normal"
	case 2:
		synchronousValueStr = "full"
	case 3:
		synchronousValueStr = "extra"
	default:
		return fmt.Errorf("synchronous value is unsupported")
	}

	sugar.Debugf("sqlite PRAGMA journal_mode: %s, synchronous: %s", journalModeValue, synchronousValueStr)

	return nil
}

// OpenSQLite opens a sqlite database at path and creates the tables.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string, sugar *zap.SugaredLogger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// there can be sqlite busy errors if this is not set to 1,
	// it also keeps a :memory: database alive across calls
	db.SetMaxOpenConns(1)

	err = setPragmaValues(db)
	if err != nil {
		return nil, err
	}

	err = readPragmaValues(db, sugar)
	if err != nil {
		return nil, err
	}

	err = setupTables(db, SQLite)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Setup(cfg *models.ConfigFile, sugar *zap.SugaredLogger) (*sql.DB, Dialect, error) {
	if cfg.SelfContained {
		sugar.Infof("Connecting to database sqlite at %s...", cfg.SqlitePath)
		db, err := OpenSQLite(cfg.SqlitePath, sugar)
		return db, SQLite, err
	}

	sugar.Info("Connecting to database mysql/mariadb...")

	db, err := sql.Open("mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&timeout=10s", cfg.DbUser, cfg.DbPassword, cfg.DbAddress, cfg.DbPort, cfg.DbDatabase))
	if err != nil {
		return nil, MySQL, err
	}

	db.SetMaxOpenConns(10)

	err = setupTables(db, MySQL)
	if err != nil {
		return nil, MySQL, err
	}

	return db, MySQL, nil
}

func setupTables(db *sql.DB, dialect Dialect) error {
	for _, kind := range kindOrder {
		for _, statement := range tables[kind].ddl(dialect) {
			_, err := db.Exec(statement)
			if err != nil {
				return fmt.Errorf("creating table %s: %w", tables[kind].name, err)
			}
		}
	}
	return nil
}
