// Package registry provides the registration table the bridge discovers nodes
// from.
//
// Rather than introspecting the program at runtime, every module explicitly
// registers its members (methods, properties and events) together with the
// markers describing how each one is exposed. The table maps a member's
// fully-qualified identity ("Owner.Name") to its declared signature, its Go
// implementation and its marker set.
//
// During application startup the registry is populated once by the compiled
// modules. Marker manifests may later attach additional markers to registered
// members; the bridge works on a clone so that each build pass starts from the
// same compiled baseline.
package registry
