package errors

import (
	"fmt"
	"strings"
)

type ErrorCode int

const (
	InternalError ErrorCode = iota
	InvalidConfiguration
	InvalidStatement
	SchemaError
	StateError
	TypeMismatch
	ScaleMismatch
	ArrayLengthMismatch
	TooFewColumns
	TooManyColumns
	IncompleteFields
	TooManyFields
	UnknownUnionTag
	SinkError
	ClosedError
	ValueOutOfRange
	UnknownEnumValue
	TableAlreadyExists
	UnknownTable
	InvalidMapKey
)

func NewInternalError(ref string) ColloadError {
	return NewColloadErrorf(InternalError, "Internal error - reference: %s please consult the logs for details", ref)
}

func NewInvalidConfigurationError(msg string) ColloadError {
	return NewColloadErrorf(InvalidConfiguration, "Invalid configuration: %s", msg)
}

func NewInvalidStatementError(msg string) ColloadError {
	return NewColloadErrorf(InvalidStatement, "Invalid statement: %s", msg)
}

func NewSchemaError(schemaName string, tableName string, msg string) ColloadError {
	return NewColloadErrorf(SchemaError, "Cannot resolve table %s.%s: %s", schemaName, tableName, msg)
}

func NewStateError(msg string) ColloadError {
	return NewColloadErrorf(StateError, "Invalid appender state: %s", msg)
}

func NewTypeMismatchError(expected string, value interface{}) ColloadError {
	return NewColloadErrorf(TypeMismatch, "Type mismatch: cannot append %T to column of type %s", value, expected)
}

func NewScaleMismatchError(expected int, actual int) ColloadError {
	return NewColloadErrorf(ScaleMismatch, "Decimal scale mismatch: expected %d, actual %d", expected, actual)
}

func NewArrayLengthMismatchError(expected int, actual int) ColloadError {
	return NewColloadErrorf(ArrayLengthMismatch, "Array length mismatch: expected %d, actual %d", expected, actual)
}

func NewTooFewColumnsError(expected int, actual int) ColloadError {
	return NewColloadErrorf(TooFewColumns, "Too few columns: expected %d, actual %d", expected, actual)
}

func NewTooManyColumnsError(expected int) ColloadError {
	return NewColloadErrorf(TooManyColumns, "Too many columns: table has %d columns", expected)
}

func NewIncompleteFieldsError(expected int, actual int) ColloadError {
	return NewColloadErrorf(IncompleteFields, "Incomplete struct: expected %d fields, actual %d", expected, actual)
}

func NewTooManyFieldsError(expected int) ColloadError {
	return NewColloadErrorf(TooManyFields, "Too many fields: struct has %d fields", expected)
}

func NewUnknownUnionTagError(tag string, members []string) ColloadError {
	return NewColloadErrorf(UnknownUnionTag, "Unknown union tag %s, expected one of: %s", tag, strings.Join(members, ", "))
}

func NewSinkError(cause error) ColloadError {
	e := NewColloadErrorf(SinkError, "Sink rejected chunk: %v", cause)
	e.cause = cause
	return e
}

func NewClosedError() ColloadError {
	return NewColloadErrorf(ClosedError, "Appender is closed")
}

func NewValueOutOfRangeError(msg string) ColloadError {
	return NewColloadErrorf(ValueOutOfRange, "Value out of range. %s", msg)
}

func NewUnknownEnumValueError(value string, values []string) ColloadError {
	return NewColloadErrorf(UnknownEnumValue, "Unknown enum value %q, expected one of: %s", value, strings.Join(values, ", "))
}

func NewTableAlreadyExistsError(schemaName string, tableName string) ColloadError {
	return NewColloadErrorf(TableAlreadyExists, "Table already exists: %s.%s", schemaName, tableName)
}

func NewUnknownTableError(schemaName string, tableName string) ColloadError {
	return NewColloadErrorf(UnknownTable, "Unknown table: %s.%s", schemaName, tableName)
}

func NewInvalidMapKeyError(msg string) ColloadError {
	return NewColloadErrorf(InvalidMapKey, "Invalid map key: %s", msg)
}

func NewColloadErrorf(errorCode ErrorCode, msgFormat string, args ...interface{}) ColloadError {
	msg := fmt.Sprintf(fmt.Sprintf("CLD%04d - %s", errorCode, msgFormat), args...)
	return ColloadError{Code: errorCode, Msg: msg}
}

// ColloadError is any error surfaced to users of the appender, the store or the CLI.
type ColloadError struct {
	Code  ErrorCode
	Msg   string
	cause error
}

func (u ColloadError) Error() string {
	return u.Msg
}

func (u ColloadError) Unwrap() error {
	return u.cause
}

// WithCause returns a copy of the error that wraps cause.
func (u ColloadError) WithCause(cause error) ColloadError {
	u.cause = cause
	return u
}

// HasCode reports whether err, or any error it wraps, is a ColloadError with the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if cerr, ok := err.(ColloadError); ok && cerr.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// MaybeAddStack adds a stack trace unless err is a ColloadError, which is meant for users and carries its own
// message.
func MaybeAddStack(err error) error {
	if _, ok := err.(ColloadError); ok {
		return err
	}
	return WithStack(err)
}
