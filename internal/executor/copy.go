package executor

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pgsqlite-go/pgsqlite/internal/pgerror"
)

// CopyTarget describes one COPY FROM STDIN statement's table and
// column list, the server-side mirror of lib-pq's CopyIn/CopyInSchema
// helpers (copy.go), which build the same "COPY table (cols) FROM
// STDIN" text this adapter now has to parse instead of generate.
type CopyTarget struct {
	Table   string
	Columns []string
}

var copyFromRe = regexp.MustCompile(`(?is)^\s*copy\s+"?([a-zA-Z_][\w]*)"?\s*(\(([^)]*)\))?\s*from\s+stdin`)

// ParseCopyIn recognizes a `COPY table [(cols)] FROM STDIN` statement,
// per spec §6's "minimal COPY support". COPY TO STDOUT and binary-
// format COPY are both out of scope (spec §4.F component expansion:
// "COPY TO STDOUT is answered with an immediate ErrorResponse"), the
// same two restrictions lib-pq's own copyin type enforces
// (errCopyToNotSupported, errBinaryCopyNotSupported).
func ParseCopyIn(sql string) (CopyTarget, bool) {
	m := copyFromRe.FindStringSubmatch(sql)
	if m == nil {
		return CopyTarget{}, false
	}
	target := CopyTarget{Table: m[1]}
	if m[3] != "" {
		for _, c := range strings.Split(m[3], ",") {
			target.Columns = append(target.Columns, strings.TrimSpace(strings.Trim(c, `"`)))
		}
	}
	return target, true
}

// IsCopyToStdout reports whether sql is a `COPY ... TO STDOUT`, the
// one shape this adapter rejects outright.
func IsCopyToStdout(sql string) bool {
	lower := strings.ToLower(sql)
	return strings.HasPrefix(strings.TrimSpace(lower), "copy") && strings.Contains(lower, "to stdout")
}

// CopyIn reads tab-separated text rows from r (the CopyData stream a
// caller in internal/server assembles from the wire) until r is
// exhausted, inserting each row with a single prepared statement,
// mirroring the text encoding lib-pq's appendEncodedText/resploop
// write on the client side: `\t` separates columns, `\n` ends a row,
// and `\N` denotes SQL NULL.
func (e *Executor) CopyIn(ctx context.Context, conn *sql.Conn, target CopyTarget, r io.Reader) (int64, error) {
	insertSQL, err := buildCopyInsert(target)
	if err != nil {
		return 0, err
	}
	stmt, err := conn.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, pgerror.FromSQLite(err)
	}
	defer stmt.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var n int64
	for scanner.Scan() {
		line := scanner.Text()
		if line == `\.` {
			break
		}
		fields := strings.Split(line, "\t")
		args := make([]any, len(fields))
		for i, f := range fields {
			if f == `\N` {
				args[i] = nil
				continue
			}
			args[i] = unescapeCopyText(f)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return n, pgerror.FromSQLite(err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("executor: reading COPY stream: %w", err)
	}
	return n, nil
}

func buildCopyInsert(target CopyTarget) (string, error) {
	if target.Table == "" {
		return "", pgerror.New(pgerror.SyntaxError, "COPY requires a target table")
	}
	var cols string
	var placeholders string
	if len(target.Columns) == 0 {
		return "", pgerror.New(pgerror.FeatureNotSupported, "COPY without an explicit column list requires the table's sidecar schema, not yet resolved by the executor")
	}
	quoted := make([]string, len(target.Columns))
	marks := make([]string, len(target.Columns))
	for i, c := range target.Columns {
		quoted[i] = `"` + c + `"`
		marks[i] = "?"
	}
	cols = strings.Join(quoted, ", ")
	placeholders = strings.Join(marks, ", ")
	return fmt.Sprintf(`INSERT INTO "%s" (%s) VALUES (%s)`, target.Table, cols, placeholders), nil
}

func unescapeCopyText(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 't':
				b.WriteByte('\t')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
