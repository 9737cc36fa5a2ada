// Package bridge owns the process-wide build artifacts of the graph node
// bridge: the descriptor set, the category index and the adapter cache.
//
// A Bridge is populated by Rebuild, which runs the whole pipeline (manifests,
// discovery, schema build, index, adapter emission) against a private clone of
// the registered modules and swaps the result in atomically. Readers never see
// a half-built state, and a rebuild never mutates the artifacts of a previous
// pass.
package bridge
