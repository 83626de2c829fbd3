package migrate

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/pgsqlite-go/pgsqlite/internal/oid"
)

// IngestDDL is the write half of LoadColumns: after a CREATE TABLE or
// ALTER TABLE ... ADD COLUMN has already run successfully against
// SQLite, it maps each declared PostgreSQL column type to its OID and
// attypmod and records it in __pgsqlite_schema, plus
// __pgsqlite_string_constraints/__pgsqlite_numeric_constraints for a
// VARCHAR(n)/CHAR(n)/NUMERIC(p,s) column, the sidecar rows spec §3
// invariant 1 requires ("every non-system table has a
// __pgsqlite_schema row per column"). DROP TABLE clears the
// corresponding sidecar rows instead. Statements this doesn't
// recognize (CREATE INDEX, ALTER ... RENAME, a multi-clause ALTER, a
// CREATE TABLE ... AS SELECT, ...) are left untouched; their columns
// fall back to buildFields' unknown/text path exactly as before.
func IngestDDL(db *sql.DB, stmt string) error {
	if m := createTableRe.FindStringSubmatchIndex(stmt); m != nil {
		table := stmt[m[2]:m[3]]
		body, _, ok := extractParenBody(stmt, m[1]-1)
		if !ok {
			return nil
		}
		return ingestColumns(db, table, splitTopLevel(body), 1)
	}
	if m := alterAddColumnRe.FindStringSubmatch(stmt); m != nil {
		table, def := m[1], m[2]
		pos, err := nextPosition(db, table)
		if err != nil {
			return err
		}
		return ingestColumns(db, table, []string{def}, pos)
	}
	if m := dropTableRe.FindStringSubmatch(stmt); m != nil {
		return dropSidecarRows(db, m[1])
	}
	return nil
}

var (
	createTableRe    = regexp.MustCompile(`(?is)^\s*CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?"?([A-Za-z_][\w]*)"?\s*\(`)
	alterAddColumnRe = regexp.MustCompile(`(?is)^\s*ALTER\s+TABLE\s+(?:IF\s+EXISTS\s+)?"?([A-Za-z_][\w]*)"?\s+ADD\s+(?:COLUMN\s+)?(?:IF\s+NOT\s+EXISTS\s+)?(.+?)\s*;?\s*$`)
	dropTableRe      = regexp.MustCompile(`(?is)^\s*DROP\s+TABLE\s+(?:IF\s+EXISTS\s+)?"?([A-Za-z_][\w]*)"?`)
)

// extractParenBody returns the text strictly between the '(' nearest
// to (and at-or-after) from and its balanced closing ')', honoring
// nested parens and quoted text so a NUMERIC(10,2) or CHECK(a > b)
// column entry doesn't prematurely close the outer column list.
func extractParenBody(s string, from int) (string, int, bool) {
	i := strings.IndexByte(s[from:], '(')
	if i < 0 {
		return "", 0, false
	}
	i += from
	depth := 0
	var inQuote byte
	for j := i; j < len(s); j++ {
		c := s[j]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
		case c == '\'' || c == '"':
			inQuote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return s[i+1 : j], j + 1, true
			}
		}
	}
	return "", 0, false
}

// splitTopLevel splits a column-definition list on commas that aren't
// nested inside a type argument, CHECK expression, or quoted text.
func splitTopLevel(s string) []string {
	var out []string
	depth := 0
	var inQuote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
		case c == '\'' || c == '"':
			inQuote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

// fieldTokens splits a single column-definition entry on whitespace,
// keeping a parenthesized group (e.g. "(10,2)" in "NUMERIC(10,2)") and
// a double-quoted identifier intact as one token.
func fieldTokens(s string) []string {
	var out []string
	var b strings.Builder
	depth := 0
	inQuote := false
	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '(':
			depth++
			b.WriteByte(c)
		case c == ')':
			depth--
			b.WriteByte(c)
		case (c == ' ' || c == '\t' || c == '\n' || c == '\r') && depth == 0 && !inQuote:
			flush()
		default:
			b.WriteByte(c)
		}
	}
	flush()
	return out
}

var constraintStartRe = regexp.MustCompile(`(?i)^(PRIMARY\s+KEY|FOREIGN\s+KEY|UNIQUE|CHECK|CONSTRAINT)\b`)

var ddlStopWords = map[string]bool{
	"NOT": true, "NULL": true, "DEFAULT": true, "PRIMARY": true, "UNIQUE": true,
	"REFERENCES": true, "CHECK": true, "COLLATE": true, "GENERATED": true, "CONSTRAINT": true,
}

// parseColumnDef splits one entry of a column-definition list into its
// column name, its type phrase (joined back into a single string for
// oid.ParseTypeName), and whether it carries NOT NULL or PRIMARY KEY.
// ok is false for a table-level constraint entry (PRIMARY KEY(...),
// FOREIGN KEY(...), a bare CHECK/UNIQUE/CONSTRAINT), which names no
// single column and is skipped rather than mis-ingested.
func parseColumnDef(entry string) (name, typePhrase string, notNull bool, ok bool) {
	entry = strings.TrimSpace(entry)
	if entry == "" || constraintStartRe.MatchString(entry) {
		return "", "", false, false
	}
	toks := fieldTokens(entry)
	if len(toks) < 2 {
		return "", "", false, false
	}
	name = strings.Trim(toks[0], `"`)

	var typeToks []string
	i := 1
	for ; i < len(toks); i++ {
		if ddlStopWords[strings.ToUpper(toks[i])] {
			break
		}
		typeToks = append(typeToks, toks[i])
	}
	if len(typeToks) == 0 {
		return "", "", false, false
	}
	typePhrase = strings.Join(typeToks, " ")

	rest := strings.ToUpper(strings.Join(toks[i:], " "))
	notNull = strings.Contains(rest, "NOT NULL") || strings.Contains(rest, "PRIMARY KEY")
	return name, typePhrase, notNull, true
}

func nextPosition(db *sql.DB, table string) (int, error) {
	var max sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(position) FROM __pgsqlite_schema WHERE table_name = ?`, table).Scan(&max); err != nil {
		return 0, fmt.Errorf("migrate: reading column position for %q: %w", table, err)
	}
	if !max.Valid {
		return 1, nil
	}
	return int(max.Int64) + 1, nil
}

func ingestColumns(db *sql.DB, table string, defs []string, startPos int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: beginning schema ingestion for %q: %w", table, err)
	}
	defer tx.Rollback()

	pos := startPos
	for _, def := range defs {
		name, typePhrase, notNull, ok := parseColumnDef(def)
		if !ok {
			continue
		}
		o, typeMod, recognized := oid.ParseTypeName(typePhrase)
		pgType := strings.ToLower(typePhrase)
		if !recognized {
			o, typeMod = oid.T_text, -1
		}
		notNullInt := 0
		if notNull {
			notNullInt = 1
		}
		if _, err := tx.Exec(
			`INSERT INTO __pgsqlite_schema
				(table_name, column_name, pg_type, pg_type_oid, type_mod, not_null, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(table_name, column_name) DO UPDATE SET
				pg_type = excluded.pg_type, pg_type_oid = excluded.pg_type_oid,
				type_mod = excluded.type_mod, not_null = excluded.not_null, position = excluded.position`,
			table, name, pgType, uint32(o), typeMod, notNullInt, pos,
		); err != nil {
			return fmt.Errorf("migrate: recording column %q.%q: %w", table, name, err)
		}
		pos++

		if err := recordConstraint(tx, table, name, o, typeMod); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func recordConstraint(tx *sql.Tx, table, column string, o oid.Oid, typeMod int32) error {
	switch o {
	case oid.T_varchar, oid.T_bpchar:
		if typeMod < 4 {
			return nil
		}
		fixed := 0
		if o == oid.T_bpchar {
			fixed = 1
		}
		_, err := tx.Exec(
			`INSERT INTO __pgsqlite_string_constraints (table_name, column_name, max_length, fixed_width)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(table_name, column_name) DO UPDATE SET max_length = excluded.max_length, fixed_width = excluded.fixed_width`,
			table, column, typeMod-4, fixed)
		return err
	case oid.T_numeric:
		if typeMod < 4 {
			return nil
		}
		raw := typeMod - 4
		precision, scale := raw>>16, raw&0xffff
		_, err := tx.Exec(
			`INSERT INTO __pgsqlite_numeric_constraints (table_name, column_name, precision, scale)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(table_name, column_name) DO UPDATE SET precision = excluded.precision, scale = excluded.scale`,
			table, column, precision, scale)
		return err
	default:
		return nil
	}
}

func dropSidecarRows(db *sql.DB, table string) error {
	for _, t := range []string{
		"__pgsqlite_schema", "__pgsqlite_string_constraints", "__pgsqlite_numeric_constraints",
		"__pgsqlite_array_types", "__pgsqlite_enum_usage", "__pgsqlite_fts_columns",
	} {
		if _, err := db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE table_name = ?`, t), table); err != nil {
			return fmt.Errorf("migrate: clearing %s for %q: %w", t, table, err)
		}
	}
	return nil
}
