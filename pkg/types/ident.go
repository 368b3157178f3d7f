package types

import "strings"

// AssetIdent identifies an asset in the module graph. Two assets with equal
// idents are the same logical node.
type AssetIdent struct {
	Path      FileSystemPath
	Query     string
	Modifiers []string
}

// NewIdent creates an ident for a plain source path.
func NewIdent(p FileSystemPath) AssetIdent {
	return AssetIdent{Path: p}
}

// WithModifier returns a copy of the ident with m appended to its modifiers.
// The receiver is left untouched.
func (i AssetIdent) WithModifier(m string) AssetIdent {
	mods := make([]string, 0, len(i.Modifiers)+1)
	mods = append(mods, i.Modifiers...)
	mods = append(mods, m)
	return AssetIdent{Path: i.Path, Query: i.Query, Modifiers: mods}
}

// Equal compares two idents field by field.
func (i AssetIdent) Equal(o AssetIdent) bool {
	if i.Path != o.Path || i.Query != o.Query || len(i.Modifiers) != len(o.Modifiers) {
		return false
	}
	for k := range i.Modifiers {
		if i.Modifiers[k] != o.Modifiers[k] {
			return false
		}
	}
	return true
}

// String renders a stable textual form, e.g. "[project]/pages/index.js?q (chunks)".
func (i AssetIdent) String() string {
	var b strings.Builder
	b.WriteString(i.Path.String())
	if i.Query != "" {
		b.WriteString("?")
		b.WriteString(i.Query)
	}
	if len(i.Modifiers) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(i.Modifiers, ", "))
		b.WriteString(")")
	}
	return b.String()
}
