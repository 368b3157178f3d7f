// Package parser extracts module imports from JavaScript and TypeScript
// sources.
//
// The parser is a small lexer, not a full grammar: it understands comments,
// string, template and regular expression literals well enough to never
// report an import that only appears inside one of them. On top of the token
// stream it recognizes the forms that create module graph edges.
//
// # Basic Usage
//
//	p := parser.New()
//	result := p.Parse("pages/index.js", source)
//	for _, imp := range result.Imports {
//	    fmt.Printf("%s import of %q on line %d\n", imp.Kind, imp.Specifier, imp.Line)
//	}
//
// # Recognized Forms
//
// Static imports (types.ImportStatic):
//   - import x from "y"
//   - import { a, b as c } from "y"
//   - import * as ns from "y"
//   - import "y"
//   - export * from "y", export { a } from "y"
//
// Dynamic imports (types.ImportDynamic): import("y") with a string literal
// or a template literal without substitutions.
//
// CommonJS (types.ImportRequire): require("y").
//
// TypeScript "import type" and "export type" clauses are skipped since they
// are erased at compile time.
//
// # Module Format
//
// ParseResult.Exports reports the inferred module format. Any import or
// export statement yields types.ExportsEsm; otherwise module.exports,
// exports.x or require calls yield types.ExportsCommonJS.
//
// # Error Handling
//
// Unterminated strings, templates, comments and regular expressions are
// recorded in ParseResult.Errors with their line. The scan continues after
// the problem and Parse never fails.
package parser
