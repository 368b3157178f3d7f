package parser

import (
	"github.com/dshills/chunkgraph/pkg/types"
)

// Parser scans JavaScript and TypeScript sources for module imports
type Parser struct{}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{}
}

// Parse extracts the imports of source. Syntax problems are recorded in the
// result and never abort the scan, so a partially broken file still yields
// the imports found before and after the problem.
func (p *Parser) Parse(file string, source []byte) *types.ParseResult {
	result := &types.ParseResult{Imports: make([]types.Import, 0)}
	toks := tokenize(file, string(source), result)

	s := &scan{toks: toks, result: result}
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.kind != tokIdent || s.at(i-1).is(tokPunct, ".") {
			continue
		}
		switch t.text {
		case "import":
			i = s.importDecl(i)
		case "export":
			s.esm = true
			i = s.exportFrom(i)
		case "require":
			s.require(i)
		case "module":
			if s.at(i+1).is(tokPunct, ".") && s.at(i+2).is(tokIdent, "exports") {
				s.commonJS = true
			}
		case "exports":
			if s.at(i+1).is(tokPunct, ".") || s.at(i+1).is(tokPunct, "=") {
				s.commonJS = true
			}
		}
	}

	result.Exports = classifyExports(s.esm, s.commonJS)
	return result
}

type scan struct {
	toks     []token
	result   *types.ParseResult
	esm      bool
	commonJS bool
}

func (s *scan) at(i int) token {
	if i < 0 || i >= len(s.toks) {
		return token{kind: tokEOF}
	}
	return s.toks[i]
}

func (s *scan) add(spec string, kind types.ImportKind, line int) {
	s.result.Imports = append(s.result.Imports, types.Import{Specifier: spec, Kind: kind, Line: line})
}

// importDecl handles "import" at i and returns the last consumed index
func (s *scan) importDecl(i int) int {
	t := s.toks[i]
	next := s.at(i + 1)

	switch {
	case next.is(tokPunct, "("):
		// import("x") or import("x", { with: ... })
		arg := s.at(i + 2)
		if arg.kind == tokString && (s.at(i+3).is(tokPunct, ")") || s.at(i+3).is(tokPunct, ",")) {
			s.add(arg.text, types.ImportDynamic, t.line)
			return i + 2
		}
		return i
	case next.is(tokPunct, "."):
		// import.meta
		return i
	case next.kind == tokString:
		s.esm = true
		s.add(next.text, types.ImportStatic, t.line)
		return i + 1
	case next.kind == tokIdent || next.is(tokPunct, "{") || next.is(tokPunct, "*"):
		if next.text == "type" && !s.at(i+2).is(tokIdent, "from") && !s.at(i+2).is(tokPunct, ",") {
			// Type only imports are erased
			s.esm = true
			return s.skipToFrom(i + 2)
		}
		j := s.skipToFrom(i + 1)
		if s.at(j-1).is(tokIdent, "from") && s.at(j).kind == tokString {
			s.esm = true
			s.add(s.at(j).text, types.ImportStatic, t.line)
		}
		return j
	default:
		return i
	}
}

// skipToFrom advances over an import clause and returns the index of the
// specifier string following "from", or the index where the clause ended.
func (s *scan) skipToFrom(i int) int {
	for j := i; j < len(s.toks); j++ {
		t := s.toks[j]
		switch {
		case t.kind == tokEOF, t.is(tokPunct, ";"):
			return j
		case t.kind == tokString:
			return j
		case t.is(tokIdent, "import"), t.is(tokIdent, "export"):
			return j - 1
		}
	}
	return len(s.toks) - 1
}

// exportFrom handles "export * from" and "export { ... } from" at i
func (s *scan) exportFrom(i int) int {
	t := s.toks[i]
	j := i + 1
	if s.at(j).is(tokIdent, "type") && (s.at(j+1).is(tokPunct, "{") || s.at(j+1).is(tokPunct, "*")) {
		return s.skipToFrom(j + 1)
	}

	switch {
	case s.at(j).is(tokPunct, "*"):
		j++
		if s.at(j).is(tokIdent, "as") {
			j += 2
		}
	case s.at(j).is(tokPunct, "{"):
		for j < len(s.toks) && !s.at(j).is(tokPunct, "}") && s.at(j).kind != tokEOF {
			j++
		}
		j++
	default:
		return i
	}

	if s.at(j).is(tokIdent, "from") && s.at(j+1).kind == tokString {
		s.add(s.at(j+1).text, types.ImportStatic, t.line)
		return j + 1
	}
	return j - 1
}

// require handles require("x") at i
func (s *scan) require(i int) {
	if s.at(i+1).is(tokPunct, "(") && s.at(i+2).kind == tokString && s.at(i+3).is(tokPunct, ")") {
		s.commonJS = true
		s.add(s.at(i+2).text, types.ImportRequire, s.toks[i].line)
	}
}
