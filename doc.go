// Package webmetrics binds a tagged timer-metric registry into HTTP
// request pipelines.
//
// The httpmetrics package provides a server middleware and a client
// RoundTripper which record one timer sample per completed exchange,
// tagged by URI template, host, method, and final status. The
// metrics/registry package holds the tagged timers and exposes
// percentile snapshots of their distributions.
package webmetrics
