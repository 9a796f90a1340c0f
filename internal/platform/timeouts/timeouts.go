// Package timeouts defines shared timeout constants used across services.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// FetchRequest caps one remote API read issued by the data sync layer.
const FetchRequest = 10 * time.Second

// RenderWait caps how long a page handler waits for an in-flight fetch
// before rendering the loading state instead.
const RenderWait = 2 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
