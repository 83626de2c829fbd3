package pgerror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSQLite_UniqueViolation(t *testing.T) {
	err := errors.New("UNIQUE constraint failed: users.email")
	pe := FromSQLite(err)
	require.NotNil(t, pe)
	assert.Equal(t, UniqueViolation, pe.Code)
	assert.Equal(t, "users", pe.Table)
	assert.Equal(t, "email", pe.Column)
	assert.Equal(t, "users_email_key", pe.Constraint)
}

func TestFromSQLite_NotNullViolation(t *testing.T) {
	pe := FromSQLite(errors.New("NOT NULL constraint failed: exams.title"))
	require.NotNil(t, pe)
	assert.Equal(t, NotNullViolation, pe.Code)
	assert.Equal(t, "exams", pe.Table)
}

func TestFromSQLite_UndefinedTable(t *testing.T) {
	pe := FromSQLite(errors.New("no such table: widgets"))
	require.NotNil(t, pe)
	assert.Equal(t, UndefinedTable, pe.Code)
}

func TestFromSQLite_PassThroughExistingError(t *testing.T) {
	orig := New(QueryCanceled, "timed out")
	pe := FromSQLite(orig)
	assert.Same(t, orig, pe)
}

func TestFromSQLite_Fallback(t *testing.T) {
	pe := FromSQLite(errors.New("something unexpected"))
	assert.Equal(t, InternalError, pe.Code)
}

func TestErrorCodeClassAndName(t *testing.T) {
	assert.Equal(t, Class("23"), UniqueViolation.Class())
	assert.Equal(t, "unique_violation", UniqueViolation.Name())
}

func TestProtocolfIsFatal(t *testing.T) {
	e := Protocolf("bad length %d", -1)
	assert.True(t, e.Fatal())
	assert.Equal(t, ProtocolViolation, e.Code)
}
