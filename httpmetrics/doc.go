// Package httpmetrics instruments HTTP servers and clients with tagged
// timer metrics.
//
// Every completed exchange records exactly one sample into a
// role-specific timer:
//
//	http.server.requests — inbound, via the NewServer middleware
//	http.client.requests — outbound, via the NewTransport RoundTripper
//
// Samples are tagged with:
//
//	uri    — the route template (e.g. /apps/{id}), never the
//	         interpolated path, so cardinality stays bounded
//	method — the HTTP method
//	host   — the request host
//	status — the final response status code as a string
//
// The server middleware observes the final status even when the
// application panics: the panic is recovered, mapped through an
// ordered error-mapping chain (default 500), and the written status is
// what gets recorded. Requests that match no route record uri=NOT_FOUND
// with status 404.
//
// Installation is gated by two configuration flags; see Config and New.
package httpmetrics
