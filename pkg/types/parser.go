package types

// ImportKind classifies how a module refers to another one
type ImportKind string

const (
	ImportStatic  ImportKind = "static"  // import x from "y", import "y", export ... from "y"
	ImportDynamic ImportKind = "dynamic" // import("y")
	ImportRequire ImportKind = "require" // require("y")
)

// ParseResult represents the output of scanning a JavaScript source file
type ParseResult struct {
	Imports []Import

	// Exports is the module format inferred from the source
	Exports EcmascriptExports

	// Errors encountered during parsing
	Errors []ParseError
}

// Import represents a single import of another module
type Import struct {
	Specifier string // Import specifier as written (e.g., "./util", "react")
	Kind      ImportKind
	Line      int
}

// ParseError represents an error that occurred during parsing
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

// Error implements the error interface
func (pe *ParseError) Error() string {
	return pe.Message
}

// HasErrors returns true if any parsing errors occurred
func (pr *ParseResult) HasErrors() bool {
	return len(pr.Errors) > 0
}

// AddError adds a parsing error to the result
func (pr *ParseResult) AddError(file string, line, col int, msg string) {
	pr.Errors = append(pr.Errors, ParseError{
		File:    file,
		Line:    line,
		Column:  col,
		Message: msg,
	})
}
