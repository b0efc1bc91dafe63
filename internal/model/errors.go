package model

import "errors"

// Error kinds surfaced by the pipeline. Callers match them with errors.Is;
// every stage wraps them with the context it has.
var (
	// ErrNotFound: the catalog has no asset for the year/bbox pair, or the
	// requested district does not exist in the boundary dataset.
	ErrNotFound = errors.New("not found")
	// ErrTransientIO: network or service failure that may succeed on retry.
	ErrTransientIO = errors.New("transient io error")
	// ErrCRS: missing or incompatible coordinate reference system.
	ErrCRS = errors.New("crs transform error")
	// ErrDataIntegrity: a class code without a colour, or duplicated rows.
	ErrDataIntegrity = errors.New("data integrity error")
	// ErrInvalidInput: malformed year, bbox or geometry.
	ErrInvalidInput = errors.New("invalid input")
)
