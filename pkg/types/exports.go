package types

// EcmascriptExports describes what a placeable module exposes to importers.
type EcmascriptExports int

const (
	// ExportsNone means the module has no exports.
	ExportsNone EcmascriptExports = iota
	// ExportsValue is a single opaque value export.
	ExportsValue
	// ExportsEsm is a set of named ES module bindings.
	ExportsEsm
	// ExportsCommonJS is a module.exports object.
	ExportsCommonJS
)

func (e EcmascriptExports) String() string {
	switch e {
	case ExportsNone:
		return "none"
	case ExportsValue:
		return "value"
	case ExportsEsm:
		return "esm"
	case ExportsCommonJS:
		return "commonjs"
	default:
		return "unknown"
	}
}
