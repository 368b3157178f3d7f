package parser

import "github.com/dshills/chunkgraph/pkg/types"

// classifyExports infers the module format from the syntax found in a file.
// Any import or export statement makes the module an ES module, even when it
// also touches module.exports.
func classifyExports(esm, commonJS bool) types.EcmascriptExports {
	switch {
	case esm:
		return types.ExportsEsm
	case commonJS:
		return types.ExportsCommonJS
	default:
		return types.ExportsNone
	}
}
