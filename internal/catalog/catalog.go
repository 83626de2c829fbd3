package catalog

import (
	"database/sql"
	"fmt"
)

// Bootstrap (re)creates every pg_catalog/information_schema view this
// package knows about against db. It's idempotent and cheap (a handful
// of DROP VIEW/CREATE VIEW statements), and the server calls it once per
// process startup after migrate.Migrator.Apply. The views read the
// sidecar tables live, so later DDL needs no second call.
//
// information_schema's relations need a real attached schema so
// `information_schema.tables`-qualified queries resolve the way
// PostgreSQL clients issue them (unlike pg_catalog.*, which the
// translator's schema-prefix stripper already reduces to bare names
// before this package ever sees the query).
func Bootstrap(db *sql.DB) error {
	if err := attachInformationSchema(db); err != nil {
		return fmt.Errorf("catalog: attaching information_schema: %w", err)
	}
	for _, stmt := range Views() {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("catalog: %s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func attachInformationSchema(db *sql.DB) error {
	rows, err := db.Query("PRAGMA database_list")
	if err != nil {
		return err
	}
	defer rows.Close()

	attached := false
	for rows.Next() {
		var seq int
		var name, file string
		if err := rows.Scan(&seq, &name, &file); err != nil {
			return err
		}
		if name == "information_schema" {
			attached = true
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if attached {
		return nil
	}
	_, err = db.Exec(`ATTACH DATABASE '' AS information_schema`)
	return err
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
