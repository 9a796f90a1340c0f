// Package web serves the JSON preview surface of the donation transparency
// data layer.
//
// Every route reads through the shared resource hooks, so a page that asks
// for the same campaign twice, or two pages asking at once, cause one remote
// read. The surface also exposes the browser focus and reconnect signals and
// the toast queue that page code drives.
package web
