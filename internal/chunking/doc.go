// Package chunking decides where chunks are written and which runtime id a
// chunk item receives.
//
// A DevContext keeps names readable: a chunk for "pages/index.js" with the
// "ecmascript chunk" modifier lands at
// "<output>/static/chunks/pages_index.js_ecmascript_chunk.js". Names longer
// than 80 characters keep their tail and get a BLAKE3 suffix. Static assets
// land at "<output>/static/media/<stem>.<hash8><ext>".
//
// Module ids follow one of two strategies:
//   - "path": the ident path relative to the project root, plus query and
//     modifiers (default)
//   - "hash": the first 8 hex characters of the BLAKE3 digest of the ident
package chunking
