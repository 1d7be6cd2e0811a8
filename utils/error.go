package utils

import "errors"

// ErrorKind classifies failures of the document pipeline so that callers
// (HTTP, Pub/Sub push, CLI) can map them without string matching.
type ErrorKind string

const (
	ErrorKindNotFound            ErrorKind = "NotFound"
	ErrorKindInvalidRequest      ErrorKind = "InvalidRequest"
	ErrorKindNoRowsFound         ErrorKind = "NoRowsFound"
	ErrorKindNoHistoricalData    ErrorKind = "NoHistoricalData"
	ErrorKindEmptyReportData     ErrorKind = "EmptyReportData"
	ErrorKindConversionFailed    ErrorKind = "ConversionFailed"
	ErrorKindUploadFailed        ErrorKind = "UploadFailed"
	ErrorKindRegistryWriteFailed ErrorKind = "RegistryWriteFailed"
	ErrorKindConflict            ErrorKind = "Conflict"
	ErrorKindInternal            ErrorKind = "Internal"
)

type kindError struct {
	kind   ErrorKind
	msg    string
	parent error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.parent }

func newKindError(kind ErrorKind, msg string, parent error) error {
	return &kindError{kind: kind, msg: msg, parent: parent}
}

var (
	ErrorRecordNotFound = newKindError(ErrorKindNotFound, "record not found", nil)
	ErrorNoMeetingFound = newKindError(ErrorKindNotFound, "no meeting found", ErrorRecordNotFound)
	ErrorNoCompanyFound = newKindError(ErrorKindNotFound, "no company found", ErrorRecordNotFound)

	ErrorInvalidRequest      = newKindError(ErrorKindInvalidRequest, "invalid request", nil)
	ErrorNoRowsFound         = newKindError(ErrorKindNoRowsFound, "no rows found", nil)
	ErrorNoHistoricalData    = newKindError(ErrorKindNoHistoricalData, "no historical data", nil)
	ErrorEmptyReportData     = newKindError(ErrorKindEmptyReportData, "empty report data", nil)
	ErrorConversionFailed    = newKindError(ErrorKindConversionFailed, "conversion failed", nil)
	ErrorUploadFailed        = newKindError(ErrorKindUploadFailed, "upload failed", nil)
	ErrorRegistryWriteFailed = newKindError(ErrorKindRegistryWriteFailed, "registry write failed", nil)
	// ErrorArtifactExists means the artifact id is already taken; stored
	// artifacts are never replaced.
	ErrorArtifactExists = newKindError(ErrorKindConflict, "artifact already exists", nil)
)

// ErrorKindOf returns the kind of the first classified error in err's chain,
// or ErrorKindInternal when none is found.
func ErrorKindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return ErrorKindInternal
}

// PublicMessage is the text shown to API callers. Infrastructure failures
// only expose their kind, never the wrapped detail (paths, bucket names).
func PublicMessage(err error) string {
	switch ErrorKindOf(err) {
	case ErrorKindConversionFailed:
		return ErrorConversionFailed.Error()
	case ErrorKindUploadFailed:
		return ErrorUploadFailed.Error()
	case ErrorKindRegistryWriteFailed:
		return ErrorRegistryWriteFailed.Error()
	case ErrorKindInternal:
		return "internal error"
	default:
		return err.Error()
	}
}
