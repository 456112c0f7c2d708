package core

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// StoreErrorCode classifies a persistence gateway failure.
type StoreErrorCode string

const (
	StoreConstraint StoreErrorCode = "constraint"
	StoreNotFound   StoreErrorCode = "not_found"
	StorePermission StoreErrorCode = "permission"
	StoreTransient  StoreErrorCode = "transient"
)

// StoreError is returned by every repository when the gateway rejects or fails an operation.
type StoreError struct {
	Code StoreErrorCode
	Op   string
	Err  error
}

func NewStoreError(code StoreErrorCode, op string, err error) error {
	return &StoreError{Code: code, Op: op, Err: err}
}

func (err *StoreError) Error() string {
	if err.Err == nil {
		return fmt.Sprintf("%s: %s", err.Op, err.Code)
	}
	return fmt.Sprintf("%s: %s: %v", err.Op, err.Code, err.Err)
}

func (err *StoreError) Unwrap() error { return err.Err }

// CheckRows verifies rows read from a store. The first row failing check is reported as a
// constraint error of op; the check error is flattened so it never reads as a user error.
func CheckRows[T any](op string, rows []T, check func(T) error) ([]T, error) {
	for _, row := range rows {
		if err := check(row); err != nil {
			return nil, NewStoreError(StoreConstraint, op, fmt.Errorf("malformed row: %v", err))
		}
	}
	return rows, nil
}

// CheckRow is CheckRows for a single row.
func CheckRow[T any](op string, row T, check func(T) error) (T, error) {
	if _, err := CheckRows(op, []T{row}, check); err != nil {
		var zero T
		return zero, err
	}
	return row, nil
}

// StoreCode returns the store error code of err, or "" when err is not a store error.
func StoreCode(err error) StoreErrorCode {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	return StoreCode(err) == StoreNotFound
}

// UploadLimits holds the size ceilings (in bytes) per uploaded asset kind.
type UploadLimits struct {
	Video    int64
	Document int64
}

// UploadError is raised before any blob or metadata call when a file is rejected.
type UploadError struct {
	Reason string
	Limit  int64
}

func (err *UploadError) Error() string {
	if err.Limit > 0 {
		return fmt.Sprintf("upload rejected: %s (limit %dMB)", err.Reason, err.Limit/MB)
	}
	return "upload rejected: " + err.Reason
}

// IsUserError reports whether err was caused by the user input (validation or upload rejection).
func IsUserError(err error) bool {
	var (
		ve  *ValidationError
		vve validator.ValidationErrors
		ue  *UploadError
	)
	return errors.As(err, &ve) || errors.As(err, &vve) || errors.As(err, &ue)
}

// UserMessage maps an error to the category message shown to a user. Raw transport errors never leak.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		ve  *ValidationError
		vve validator.ValidationErrors
		ue  *UploadError
	)
	switch {
	case errors.As(err, &ve):
		if len(ve.Fields) > 0 {
			return fmt.Sprintf("Datos no válidos: %s %s", ve.Fields[0].Field, ve.Fields[0].Error)
		}
		if ve.Err != nil {
			return "Datos no válidos: " + ve.Err.Error()
		}
		return "Datos no válidos"
	case errors.As(err, &vve):
		return "Datos no válidos: " + vve[0].Field()
	case errors.As(err, &ue):
		if ue.Limit > 0 {
			return fmt.Sprintf("El archivo supera el límite de %dMB", ue.Limit/MB)
		}
		return "Archivo no válido: " + ue.Reason
	}
	switch StoreCode(err) {
	case StoreNotFound:
		return "El elemento ya no existe"
	case StoreConstraint:
		return "La operación entra en conflicto con otros datos"
	case StorePermission:
		return "No tienes permisos para esta operación"
	case StoreTransient:
		return "Error de conexión, inténtalo de nuevo"
	}
	return "Se ha producido un error inesperado"
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
