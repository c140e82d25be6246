package domain

import "errors"

var (
	ErrSchemaInvalid      = errors.New("schema is not valid JSON")
	ErrConversionFailed   = errors.New("document conversion failed")
	ErrUnconfiguredClient = errors.New("no configuration exists for this client")
	ErrInvalidVersion     = errors.New("invalid prompt version")
	ErrDocumentNotFound   = errors.New("document not found")
)
