package entity

import "errors"

// Domain errors
var (
	// Generation errors
	ErrInvalidAPIKey       = errors.New("invalid api key")
	ErrMissingAPIKey       = errors.New("missing api key")
	ErrGenerationExhausted = errors.New("lesson plan generation attempts exhausted")
	ErrMalformedPlan       = errors.New("malformed lesson plan")

	// Template errors
	ErrTemplateInvalid = errors.New("invalid lesson plan template")
	ErrDocumentFill    = errors.New("fill lesson plan document")
	ErrDocumentSave    = errors.New("save lesson plan document")

	// Upload errors
	ErrInvalidFile        = errors.New("invalid file")
	ErrFileTooLarge       = errors.New("file too large")
	ErrInvalidExtension   = errors.New("invalid file extension")
	ErrUnsupportedFormat  = errors.New("unsupported document format")
	ErrExtractionFailed   = errors.New("document text extraction failed")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrFileNotFound       = errors.New("generated file not found")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)
