package executor

import (
	"strings"

	"github.com/pgsqlite-go/pgsqlite/internal/migrate"
	"github.com/pgsqlite-go/pgsqlite/internal/pgerror"
)

// validateLiteralConstraints checks every INSERT VALUES/UPDATE SET
// literal translate.Run mapped to a column (Context.LiteralColumns)
// against that column's NUMERIC(p,s)/VARCHAR(n)/CHAR(n) sidecar
// constraint, spec §4.B's write-time validation. It runs once per
// distinct statement text, at Plan() time, since a literal value is
// part of the cache key: a different literal produces different SQL
// and so a different cache entry, never a stale validation result. It
// cannot blank-pad a CHAR(n) literal in place without re-splicing the
// cached SQL text, so only the bound-parameter path (validateParamConstraints)
// pads; a short CHAR(n) literal is left as SQLite would store it.
func (e *Executor) validateLiteralConstraints(table string, literals map[string]string) error {
	if table == "" || len(literals) == 0 {
		return nil
	}
	for column, text := range literals {
		if err := e.validateColumnText(table, column, text); err != nil {
			return err
		}
	}
	return nil
}

// validateParamConstraints checks every bound parameter translate.Run
// mapped to a column (Plan.ParamColumns) against its sidecar
// constraint, and blank-pads a CHAR(n) string parameter shorter than
// its declared width in place, mutating params before the caller hands
// them to database/sql.
func (e *Executor) validateParamConstraints(table string, paramColumns map[int]string, params []any) error {
	if table == "" || len(paramColumns) == 0 {
		return nil
	}
	for n, column := range paramColumns {
		i := n - 1
		if i < 0 || i >= len(params) {
			continue
		}
		text, ok := params[i].(string)
		if !ok {
			continue
		}
		padded, err := e.validateColumnValue(table, column, text)
		if err != nil {
			return err
		}
		if padded != text {
			params[i] = padded
		}
	}
	return nil
}

func (e *Executor) validateColumnText(table, column, text string) error {
	_, err := e.validateColumnValue(table, column, text)
	return err
}

// validateColumnValue is the shared check: it returns text unchanged
// unless column is CHAR(n) and text is shorter, in which case it
// returns the blank-padded value. Callers that can't use a padded
// result (the literal-SQL-text path) just discard it and keep the
// error.
func (e *Executor) validateColumnValue(table, column, text string) (string, error) {
	if nc, ok, err := migrate.LoadNumericConstraint(e.DB, table, column); err != nil {
		return text, pgerror.Internal(err)
	} else if ok {
		if err := validateNumericConstraint(table, column, text, nc); err != nil {
			return text, err
		}
	}
	if sc, ok, err := migrate.LoadStringConstraint(e.DB, table, column); err != nil {
		return text, pgerror.Internal(err)
	} else if ok {
		return validateStringConstraint(table, column, text, sc)
	}
	return text, nil
}

// validateNumericConstraint enforces NUMERIC(p,s): at most scale
// digits after the decimal point and at most precision-scale digits
// before it, rejecting with 22003 numeric_value_out_of_range
// (spec §4.B, SPEC_FULL.md §6 decision 3) exactly as PostgreSQL does
// rather than silently truncating or rounding.
func validateNumericConstraint(table, column, text string, nc migrate.NumericConstraint) error {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return nil
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	intPart = strings.TrimLeft(intPart, "0")
	if len(fracPart) > int(nc.Scale) {
		return pgerror.New(pgerror.NumericValueOutOfRange,
			"numeric field overflow: value exceeds scale %d for column %q of relation %q", nc.Scale, column, table)
	}
	maxIntDigits := int(nc.Precision - nc.Scale)
	if maxIntDigits < 0 {
		maxIntDigits = 0
	}
	if len(intPart) > maxIntDigits {
		return pgerror.New(pgerror.NumericValueOutOfRange,
			"numeric field overflow: a field with precision %d, scale %d must round to an absolute value less than 10^%d for column %q of relation %q",
			nc.Precision, nc.Scale, maxIntDigits, column, table)
	}
	return nil
}

// validateStringConstraint enforces VARCHAR(n)/CHAR(n): a value over
// n characters rejects with 22001 string_data_right_truncation, and a
// CHAR(n) value under n characters is blank-padded the way PostgreSQL
// stores it, per spec §4.B.
func validateStringConstraint(table, column, text string, sc migrate.StringConstraint) (string, error) {
	n := len([]rune(text))
	if n > int(sc.MaxLength) {
		return text, pgerror.New(pgerror.StringDataRightTruncation,
			"value too long for type character%s(%d)", varyingSuffix(sc.FixedWidth), sc.MaxLength)
	}
	if sc.FixedWidth && n < int(sc.MaxLength) {
		return text + strings.Repeat(" ", int(sc.MaxLength)-n), nil
	}
	return text, nil
}

func varyingSuffix(fixedWidth bool) string {
	if fixedWidth {
		return ""
	}
	return " varying"
}
