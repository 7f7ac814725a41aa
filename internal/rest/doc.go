// Package rest provides a small declarative framework for typed REST API
// clients.
//
// # Overview
//
// Each remote call is declared once as an Operation: HTTP method, path
// template, and the name of the client type it belongs to. Optional
// metadata describes how call arguments become a request body and which
// value feeds a computed path. The metadata lives in an explicit Registry
// that is handed to client constructors, so tests can build isolated
// registries.
//
//	var opInfo = rest.GET("realdebrid", "torrentsInfo",
//		rest.PathFunc(func(args any) string {
//			return "/torrents/info/" + args.(string)
//		}))
//
//	reg := rest.NewRegistry()
//	err := rest.Define(reg, opInfo, rest.WithURLArgs(rest.URLArgs))
//
// # Call Path
//
// A call flows through three steps:
//
//  1. Build: path template + registered mappers + Args → Request. Pure, no I/O.
//  2. Dispatch: the client's Interceptor sees a copy of the Request exactly
//     once (auth headers go here), then the Transport sends it.
//  3. Decode: a 2xx body is JSON-decoded into the caller's destination.
//
// Failures are always *TransportError. For non-2xx responses its Body is the
// server's payload byte for byte, so callers decode domain errors from it
// instead of inspecting transport internals.
//
// # Registry Lifecycle
//
// Metadata is registered while clients are declared. Registering the same
// kind twice for one operation fails with *DuplicateMetadataError. The
// first dispatched call seals the registry; later registrations fail with
// ErrRegistrySealed.
//
// # Concurrency
//
// Calls are independent: no caching, retries or concurrency limits. A
// sealed registry is read-only and safe for concurrent lookups.
package rest
