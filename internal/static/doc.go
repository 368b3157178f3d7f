// Package static handles assets that are copied to the output unchanged.
package static
