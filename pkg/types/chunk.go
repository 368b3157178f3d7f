package types

import (
	"crypto/sha256"
	"fmt"
)

// ChunkItemContent is the generated body of one chunk item. Only InnerCode is
// required; the remaining fields default to their zero values.
type ChunkItemContent struct {
	InnerCode string
	SourceMap string

	// Options
	UseStrict bool
	External  bool
}

// Validate checks that the content can be placed in a chunk
func (c *ChunkItemContent) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil content", ErrInvalidContent)
	}
	if c.InnerCode == "" {
		return fmt.Errorf("%w: inner code cannot be empty", ErrInvalidContent)
	}
	return nil
}

// ContentHash computes the SHA-256 hash of the inner code
func (c *ChunkItemContent) ContentHash() [32]byte {
	return sha256.Sum256([]byte(c.InnerCode))
}

// AssetContent is the raw content of a source or output asset.
type AssetContent struct {
	Bytes    []byte
	NotFound bool
}

// ComputeContentHash computes the SHA-256 hash of the content
func (c AssetContent) ComputeContentHash() [32]byte {
	return sha256.Sum256(c.Bytes)
}

// String returns the content as text
func (c AssetContent) String() string {
	return string(c.Bytes)
}
