package types

import "errors"

// Domain errors shared across the asset graph
var (
	// ErrContentUnsupported is raised when raw content is requested from an
	// asset that only produces content through its chunk item.
	ErrContentUnsupported = errors.New("asset content is not available directly")
	ErrNotFound           = errors.New("not found")
	ErrNotChunkable       = errors.New("asset is not chunkable")
	ErrUnresolved         = errors.New("unable to resolve module")
	ErrEmptySpecifier     = errors.New("import specifier cannot be empty")
	ErrInvalidContent     = errors.New("chunk item content is invalid")
)
