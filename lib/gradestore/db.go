package gradestore

import (
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Config struct {
	// File is a local sqlite database, ":memory:" is accepted.
	File string `json:"file"`
	// Url is a remote libsql database (libsql:// or https://), it takes
	// precedence over File.
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// dsn is Url with AuthToken added as the authToken query parameter.
func (config Config) dsn() (string, error) {
	parsed, err := url.Parse(config.Url)
	if err != nil {
		return "", fmt.Errorf("invalid database url: %w", err)
	}
	if config.AuthToken != "" {
		query := parsed.Query()
		query.Set("authToken", config.AuthToken)
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}

// OpenDB opens the configured database and applies the schema.
func (config Config) OpenDB() (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch {
	case config.Url != "":
		dsn, err := config.dsn()
		if err != nil {
			return nil, err
		}
		db, err = sql.Open("libsql", dsn)
		if err != nil {
			return nil, err
		}
	case config.File != "":
		db, err = sql.Open("sqlite", config.File)
		if err != nil {
			return nil, err
		}
		// a single connection keeps :memory: databases alive and avoids
		// SQLITE_BUSY on concurrent writes
		db.SetMaxOpenConns(1)
		if config.File != ":memory:" {
			_, err = db.Exec("PRAGMA journal_mode=WAL")
			if err != nil {
				db.Close()
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("neither a file nor a url was specified")
	}

	_, err = db.Exec(Schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
