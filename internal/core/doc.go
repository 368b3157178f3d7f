// Package core defines the asset graph contracts shared by every bundler
// component.
//
// An Asset is a node with an identity, content and references. Assets that
// can be output implement ChunkableAsset; the output files themselves are
// Chunks. A ChunkingContext decides where chunks go and which runtime id a
// chunk item gets.
//
// References are typed edges:
//   - SingleAssetReference: a static dependency placed in the same chunk
//   - ParallelChunkReference: a chunk that loads alongside the declaring one
//   - ChunkGroupReference: a whole chunk group the declaring asset needs
//   - AsyncAssetReference: an on-demand dependency, split into its own group
package core
