package documents

import "errors"

var (
	// ErrNotFound is returned when a document does not exist for the caller
	// or has been soft-deleted.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidInput covers malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidDocumentType is returned when the declared type code does not
	// resolve in the catalog.
	ErrInvalidDocumentType = errors.New("invalid document type")

	// ErrUnsupportedMIME is returned when the uploaded file's detected MIME
	// type is not accepted for the declared document type.
	ErrUnsupportedMIME = errors.New("unsupported file type")

	// ErrFileTooLarge is returned when the upload exceeds the type's cap.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidStatus is returned when a verification update names a state
	// outside the recognized set.
	ErrInvalidStatus = errors.New("invalid verification status")

	// ErrStorageFailure wraps object-store write failures; no record is
	// created when it occurs.
	ErrStorageFailure = errors.New("storage failure")
)
