package archive

import "errors"

var (
	// ErrNotFound marks a show, season or row absent at the source or in the store.
	ErrNotFound = errors.New("not found")
	// ErrTransport marks a network or non-404 HTTP failure.
	ErrTransport = errors.New("transport failure")
	// ErrSchemaMissing means no schema definition is available for the store.
	ErrSchemaMissing = errors.New("schema definition missing")
	// ErrReferentialGap marks a clue that could not be matched to a category.
	ErrReferentialGap = errors.New("clue has no matching category")
)
