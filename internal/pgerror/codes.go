package pgerror

// Code is a five-character PostgreSQL SQLSTATE code.
type Code string

// Class is the class (first two characters) of a SQLSTATE code.
type Class string

// Class returns the error class, e.g. "42".
func (c Code) Class() Class {
	if len(c) < 2 {
		return ""
	}
	return Class(c[0:2])
}

// Name returns the condition name for c, e.g. "undefined_table" for 42P01.
func (c Code) Name() string {
	return names[c]
}

// Severity levels, as they appear on the wire (ErrorResponse/NoticeResponse
// field 'S').
const (
	SevError   = "ERROR"
	SevFatal   = "FATAL"
	SevPanic   = "PANIC"
	SevWarning = "WARNING"
	SevNotice  = "NOTICE"
	SevDebug   = "DEBUG"
	SevInfo    = "INFO"
	SevLog     = "LOG"
)

// The subset of PostgreSQL's SQLSTATE catalog this adapter emits, per
// spec §7. Names follow the canonical condition names from the
// PostgreSQL errcodes appendix.
const (
	SuccessfulCompletion Code = "00000"

	ProtocolViolation Code = "08P01"

	SyntaxError          Code = "42601"
	UndefinedColumn      Code = "42703"
	UndefinedTable       Code = "42P01"
	DuplicateTable       Code = "42P07"
	DuplicateColumn      Code = "42701"
	DuplicatePreparedStmt Code = "42P05"
	InvalidName          Code = "42602"
	EmptyQuery           Code = "42601"

	StringDataRightTruncation Code = "22001"
	NumericValueOutOfRange    Code = "22003"
	InvalidDatetimeFormat     Code = "22007"
	InvalidTextRepresentation Code = "22P02"
	InvalidParameterValue     Code = "22023"
	DivisionByZero            Code = "22012"
	ArraySubscriptError       Code = "2202E"

	UniqueViolation     Code = "23505"
	ForeignKeyViolation Code = "23503"
	NotNullViolation    Code = "23502"
	CheckViolation      Code = "23514"

	InFailedSQLTransaction Code = "25P02"
	ActiveSQLTransaction   Code = "25001"
	NoActiveSQLTransaction Code = "25P01"

	FeatureNotSupported Code = "0A000"

	QueryCanceled Code = "57014"
	AdminShutdown Code = "57P01"

	ConnectionException    Code = "08000"
	ConnectionDoesNotExist Code = "08003"
	ConnectionFailure      Code = "08006"

	InvalidAuthorizationSpecification Code = "28000"
	InvalidPassword                   Code = "28P01"

	InternalError  Code = "XX000"
	DataCorrupted  Code = "XX001"
	TooManyColumns Code = "54011"

	LockNotAvailable Code = "55P03"
	ObjectInUse      Code = "55006"
)

var names = map[Code]string{
	SuccessfulCompletion:               "successful_completion",
	ProtocolViolation:                  "protocol_violation",
	SyntaxError:                        "syntax_error",
	UndefinedColumn:                    "undefined_column",
	UndefinedTable:                     "undefined_table",
	DuplicateTable:                     "duplicate_table",
	DuplicateColumn:                    "duplicate_column",
	DuplicatePreparedStmt:              "duplicate_prepared_statement",
	InvalidName:                        "invalid_name",
	StringDataRightTruncation:          "string_data_right_truncation",
	NumericValueOutOfRange:             "numeric_value_out_of_range",
	InvalidDatetimeFormat:              "invalid_datetime_format",
	InvalidTextRepresentation:          "invalid_text_representation",
	InvalidParameterValue:              "invalid_parameter_value",
	DivisionByZero:                     "division_by_zero",
	ArraySubscriptError:                "array_subscript_error",
	UniqueViolation:                    "unique_violation",
	ForeignKeyViolation:                "foreign_key_violation",
	NotNullViolation:                   "not_null_violation",
	CheckViolation:                     "check_violation",
	InFailedSQLTransaction:             "in_failed_sql_transaction",
	ActiveSQLTransaction:               "active_sql_transaction",
	NoActiveSQLTransaction:             "no_active_sql_transaction",
	FeatureNotSupported:                "feature_not_supported",
	QueryCanceled:                      "query_canceled",
	AdminShutdown:                      "admin_shutdown",
	ConnectionException:                "connection_exception",
	ConnectionDoesNotExist:             "connection_does_not_exist",
	ConnectionFailure:                  "connection_failure",
	InvalidAuthorizationSpecification:  "invalid_authorization_specification",
	InvalidPassword:                    "invalid_password",
	InternalError:                      "internal_error",
	DataCorrupted:                      "data_corrupted",
	TooManyColumns:                     "too_many_columns",
	LockNotAvailable:                   "lock_not_available",
	ObjectInUse:                        "object_in_use",
}
