// Package identity resolves client ids to human-readable display names for
// diagnostics.
//
// The monitor core only depends on the Resolver interface; name resolution is
// an external concern. Two implementations are provided: a fixed in-memory
// table (Static) and a client for the registry service's HTTP lookup endpoint
// (HTTPResolver).
package identity
